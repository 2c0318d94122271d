// Copyright 2025 Antfly, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package healthz provides the health/metrics/analyze HTTP server for the
// scholarsearch service.
package healthz

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server bundles the process health endpoints with whatever additional
// routes the caller registers (e.g. the httpapi analyze handler), so the
// whole service listens on one port instead of colliding on the default
// mux.
type Server struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

// New builds a Server exposing /healthz, /readyz and /metrics.
// readyChecker reports whether the service is ready to accept traffic; a
// nil readyChecker makes /readyz always succeed.
func New(logger *zap.Logger, readyChecker func() bool) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if readyChecker == nil || readyChecker() {
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write([]byte("ready")); err != nil {
				logger.Error("failed to write ready response", zap.Error(err))
			}
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		if _, err := w.Write([]byte("not ready")); err != nil {
			logger.Error("failed to write not ready response", zap.Error(err))
		}
	})

	return &Server{mux: mux, logger: logger}
}

// Handle registers an additional route on the server's mux, e.g. the
// analyze endpoint from the httpapi package.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// Start runs the server on the given port in a background goroutine.
func (s *Server) Start(port int) {
	go func() {
		addr := fmt.Sprintf("0.0.0.0:%d", port)
		server := &http.Server{
			Addr:              addr,
			Handler:           s.mux,
			ReadHeaderTimeout: 40 * time.Second,
		}
		s.logger.Info("starting health/metrics/api server", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil {
			s.logger.Error("server error", zap.Error(err))
		}
	}()
}
