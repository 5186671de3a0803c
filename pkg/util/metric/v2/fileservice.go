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
	FSIOCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fuse",
			Subsystem: "fs",
			Name:      "io_total",
			Help:      "Total number of data accessor operations.",
		}, []string{"backend", "op"})

	FSIOBytesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fuse",
			Subsystem: "fs",
			Name:      "io_bytes_total",
			Help:      "Total bytes moved by data accessor operations.",
		}, []string{"backend", "op"})

	FSIODurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fuse",
			Subsystem: "fs",
			Name:      "io_duration_seconds",
			Help:      "Bucketed histogram of data accessor operation duration.",
			Buckets:   getDurationBuckets(),
		}, []string{"backend", "op"})

	FSRetryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fuse",
			Subsystem: "fs",
			Name:      "retry_total",
			Help:      "Total number of transient read failures retried.",
		}, []string{"op"})
)

func initFileServiceMetrics() {
	registry.MustRegister(FSIOCounter)
	registry.MustRegister(FSIOBytesCounter)
	registry.MustRegister(FSIODurationHistogram)
	registry.MustRegister(FSRetryCounter)
}
