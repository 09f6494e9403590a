/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements. See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License. You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package stats

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-errors/errors"
	"github.com/noctarius/es-bulk-exporter/internal/supporting/logging"
	"github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/version"
	"github.com/segmentio/stats/v4"
	"github.com/segmentio/stats/v4/procstats"
	"github.com/segmentio/stats/v4/prometheus"
)

type Service struct {
	statsEnabled   bool
	runtimeEnabled bool
	handler        *prometheus.Handler
	engine         *stats.Engine
	server         *http.Server
	collector      io.Closer
	logger         *logging.Logger
}

func NewStatsService(
	c *config.Config,
) (*Service, error) {

	logger, err := logging.NewLogger("StatsService")
	if err != nil {
		return nil, err
	}

	statsHandler := &prometheus.Handler{
		TrimPrefix: version.BinName,
	}

	statsEnabled := config.GetOrDefault(c, config.PropertyStatsEnabled, true)
	runtimeStatsEnabled := config.GetOrDefault(c, config.PropertyRuntimeStatsEnabled, true)
	address := config.GetOrDefault(c, config.PropertyStatsAddress, ":8081")

	engine := stats.NewEngine(version.BinName, statsHandler)

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", statsHandler.ServeHTTP)

	return &Service{
		statsEnabled:   statsEnabled,
		runtimeEnabled: runtimeStatsEnabled,
		handler:        statsHandler,
		engine:         engine,
		logger:         logger,
		server: &http.Server{
			Addr:              address,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *Service) Start() error {
	if !s.statsEnabled {
		return nil
	}
	if s.runtimeEnabled {
		s.collector = procstats.StartCollector(procstats.NewGoMetricsWith(s.engine))
	}
	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("Metrics endpoint failed: %+v", err)
		}
	}()
	s.logger.Infof("Serving metrics on %s/metrics", s.server.Addr)
	return nil
}

func (s *Service) Stop() error {
	if !s.statsEnabled {
		return nil
	}
	if s.collector != nil {
		s.collector.Close()
	}
	s.engine.Flush()
	return s.server.Shutdown(context.Background())
}

func (s *Service) NewReporter(
	prefix string,
) *Reporter {

	return &Reporter{
		statsEnabled: s.statsEnabled,
		engine:       s.engine.WithPrefix(prefix),
	}
}

// Reporter records the metrics of one component. A nil Reporter
// discards everything.
type Reporter struct {
	statsEnabled bool
	engine       *stats.Engine
}

func (r *Reporter) Incr(
	name string, tags ...stats.Tag,
) {

	if r == nil || !r.statsEnabled {
		return
	}
	r.engine.Incr(name, tags...)
}

func (r *Reporter) Add(
	name string, value int, tags ...stats.Tag,
) {

	if r == nil || !r.statsEnabled {
		return
	}
	r.engine.Add(name, value, tags...)
}

func (r *Reporter) Observe(
	name string, duration time.Duration, tags ...stats.Tag,
) {

	if r == nil || !r.statsEnabled {
		return
	}
	r.engine.Observe(name, duration, tags...)
}

// Tag is shorthand for stats.T
func Tag(
	name, value string,
) stats.Tag {

	return stats.T(name, value)
}
