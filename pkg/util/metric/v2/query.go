// Copyright 2023 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package v2

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	queryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fuse",
			Subsystem: "query",
			Name:      "total",
			Help:      "Total number of interpreted statements by kind.",
		}, []string{"kind"})

	QueryAbortedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fuse",
			Subsystem: "query",
			Name:      "aborted_total",
			Help:      "Total number of aborted queries.",
		})

	ActiveSessionGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fuse",
			Subsystem: "query",
			Name:      "active_sessions",
			Help:      "Number of live sessions.",
		})

	QueryDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fuse",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Bucketed histogram of statement duration.",
			Buckets:   getDurationBuckets(),
		}, []string{"kind"})

	pipelineBlockCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fuse",
			Subsystem: "pipeline",
			Name:      "blocks_total",
			Help:      "Total number of data blocks produced by a processor.",
		}, []string{"processor"})

	FuseCommitCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fuse",
			Subsystem: "table",
			Name:      "commit_total",
			Help:      "Fuse snapshot commits by outcome.",
		}, []string{"result"})
	FuseCommitOKCounter       = FuseCommitCounter.WithLabelValues("ok")
	FuseCommitConflictCounter = FuseCommitCounter.WithLabelValues("conflict")

	FusePrunedBlockCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fuse",
			Subsystem: "table",
			Name:      "pruned_blocks_total",
			Help:      "Blocks skipped by min/max pruning.",
		})
)

// QueryCounter returns the counter of statements of the given kind.
func QueryCounter(kind string) prometheus.Counter {
	return queryCounter.WithLabelValues(kind)
}

// PipelineBlockCounter returns the counter of blocks emitted by a processor.
func PipelineBlockCounter(processor string) prometheus.Counter {
	return pipelineBlockCounter.WithLabelValues(processor)
}

func initQueryMetrics() {
	registry.MustRegister(queryCounter)
	registry.MustRegister(QueryAbortedCounter)
	registry.MustRegister(ActiveSessionGauge)
	registry.MustRegister(QueryDurationHistogram)
	registry.MustRegister(FuseCommitCounter)
	registry.MustRegister(FusePrunedBlockCounter)
}

func initPipelineMetrics() {
	registry.MustRegister(pipelineBlockCounter)
}
