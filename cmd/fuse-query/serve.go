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

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matrixorigin/fusequery/pkg/config"
	"github.com/matrixorigin/fusequery/pkg/logutil"
	"github.com/matrixorigin/fusequery/pkg/sessions"
	v2 "github.com/matrixorigin/fusequery/pkg/util/metric/v2"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the query node and its metrics endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer cancel()
			return serve(ctx, cfg)
		},
	}
}

// serve runs until ctx is done, then aborts running queries and stops the
// metrics endpoint.
func serve(ctx context.Context, cfg *config.Config) error {
	mgr, err := sessions.NewSessionManager(context.Background(), cfg)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(v2.GetPrometheusRegistry(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.Query.MetricAddress, Handler: mux}
	errC := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()
	logutil.Info("fuse-query started",
		zap.String("tenant", cfg.Query.TenantID),
		zap.String("metric-address", cfg.Query.MetricAddress),
		zap.String("storage", cfg.Storage.Type),
		zap.Int("pid", os.Getpid()))

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errC:
		logutil.Error("metrics endpoint stopped", zap.Error(serveErr))
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(stopCtx); err != nil {
		logutil.Warn("stop metrics endpoint", zap.Error(err))
	}
	if err := mgr.Shutdown(stopCtx); err != nil {
		return err
	}
	logutil.Info("fuse-query stopped")
	return serveErr
}
