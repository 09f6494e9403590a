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

package exporter

import (
	"context"

	"github.com/noctarius/es-bulk-exporter/internal/pipeline"
	"github.com/noctarius/es-bulk-exporter/internal/stats"
	"github.com/noctarius/es-bulk-exporter/internal/supporting/logging"
	"github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/deadletter"
	"github.com/noctarius/es-bulk-exporter/spi/document"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/noctarius/es-bulk-exporter/spi/sink"
	"github.com/noctarius/es-bulk-exporter/spi/source"
	"github.com/noctarius/es-bulk-exporter/spi/wiring"

	_ "github.com/noctarius/es-bulk-exporter/internal/deadletter/awskinesis"
	_ "github.com/noctarius/es-bulk-exporter/internal/deadletter/awssqs"
	_ "github.com/noctarius/es-bulk-exporter/internal/deadletter/kafka"
	_ "github.com/noctarius/es-bulk-exporter/internal/deadletter/nats"
	_ "github.com/noctarius/es-bulk-exporter/internal/deadletter/redis"
	_ "github.com/noctarius/es-bulk-exporter/internal/deadletter/stdout"
	_ "github.com/noctarius/es-bulk-exporter/internal/sinks/elasticsearch"
	_ "github.com/noctarius/es-bulk-exporter/internal/sinks/http"
	_ "github.com/noctarius/es-bulk-exporter/internal/sinks/memory"
	_ "github.com/noctarius/es-bulk-exporter/internal/sinks/stdout"
	_ "github.com/noctarius/es-bulk-exporter/internal/source"
)

// Exporter is the top level of an export run: it owns the sink,
// the dead letter handler and the stats service for the lifetime of
// one job.
type Exporter struct {
	config       *config.Config
	settings     *Settings
	sink         sink.Sink
	deadLetters  deadletter.Handler
	statsService *stats.Service
	job          *pipeline.Job
	logger       *logging.Logger
}

func NewExporter(
	c *config.Config,
) (*Exporter, error) {

	logger, err := logging.NewLogger("Exporter")
	if err != nil {
		return nil, err
	}

	container, err := wiring.NewContainer(
		wiring.DefineModule("Config", func(module wiring.Module) {
			module.ProvideValue(c)
		}),
		StaticModule,
		DynamicModule,
	)
	if err != nil {
		return nil, err
	}

	e := &Exporter{
		config: c,
		logger: logger,
	}
	for _, service := range []any{&e.settings, &e.sink, &e.deadLetters, &e.statsService, &e.job} {
		if err := container.Service(service); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Exporter) Settings() *Settings {
	return e.settings
}

func (e *Exporter) Sink() sink.Sink {
	return e.sink
}

// Mapping describes the destination mapping derived from the
// schema, named the way the store reports it.
func (e *Exporter) Mapping() string {
	return document.Describe(e.mappingName(), e.settings.Plan.Mapping())
}

// MappingCheck compares the mapping derived from the schema with
// the one the store reports for the destination.
type MappingCheck struct {
	Name     string
	Derived  document.Mapping
	Reported document.Mapping
}

// Consistent returns true if the store mapped every field the way
// the schema derives it.
func (mc *MappingCheck) Consistent() bool {
	return mc.Derived.Fingerprint() == mc.Reported.Fingerprint()
}

func (mc *MappingCheck) String() string {
	return document.Describe(mc.Name, mc.Reported)
}

// CheckMapping asks the sink for the mapping of a static
// destination. It returns nil if the sink cannot report mappings
// or the destination depends on the documents.
func (e *Exporter) CheckMapping(
	ctx context.Context,
) (*MappingCheck, error) {

	inspector, ok := e.sink.(sink.MappingInspector)
	if !ok {
		return nil, nil
	}
	destination, static := e.settings.Template.Destination()
	if !static {
		return nil, nil
	}
	m, err := inspector.Mapping(ctx, destination.Index, destination.MappingName())
	if err != nil {
		return nil, err
	}
	return &MappingCheck{
		Name:     destination.MappingName(),
		Derived:  e.settings.Plan.Mapping(),
		Reported: m,
	}, nil
}

// ReportedMapping renders the mapping the store reports, false if
// it isn't available.
func (e *Exporter) ReportedMapping(
	ctx context.Context,
) (string, bool, error) {

	check, err := e.CheckMapping(ctx)
	if err != nil || check == nil {
		return "", false, err
	}
	return check.String(), true, nil
}

func (e *Exporter) mappingName() string {
	if destination, static := e.settings.Template.Destination(); static {
		return destination.MappingName()
	}
	return e.settings.Template.Resource().String()
}

// Run opens the source partitions and exports them. The returned
// error covers setup problems only, the outcome of the job itself
// is carried by the report.
func (e *Exporter) Run(
	ctx context.Context,
) (*pipeline.Report, error) {

	format := config.GetOrDefault(e.config, config.PropertySourceFormat, config.Delimited)
	partitions, err := source.Open(format, e.config, e.settings.Transform.Source())
	if err != nil {
		return nil, err
	}

	if err := e.start(); err != nil {
		for _, partition := range partitions {
			partition.Close()
		}
		return nil, err
	}
	defer e.stop()

	e.logger.Infof(
		"Exporting %d partitions to %s using the %s operation",
		len(partitions), e.settings.Template.Resource(), e.settings.Template.Operation(),
	)
	report := e.job.Run(ctx, partitions)
	if report.Written() > 0 {
		e.verifyMapping(ctx)
	}
	return report, nil
}

func (e *Exporter) verifyMapping(
	ctx context.Context,
) {

	check, err := e.CheckMapping(ctx)
	switch {
	case err != nil:
		e.logger.Warnf("Failed to read the store mapping: %+v", err)
	case check == nil:
	case check.Consistent():
		e.logger.Verbosef("Store mapping matches the schema: %s", check)
	default:
		e.logger.Warnf(
			"Store mapping %s differs from the mapping derived from the schema %s",
			check, document.Describe(check.Name, check.Derived),
		)
	}
}

func (e *Exporter) start() error {
	if err := e.statsService.Start(); err != nil {
		return err
	}
	if err := e.deadLetters.Start(); err != nil {
		e.statsService.Stop()
		return classify(failure.Configuration, err)
	}
	if err := e.sink.Start(); err != nil {
		e.deadLetters.Stop()
		e.statsService.Stop()
		return classify(failure.TransientRejection, err)
	}
	return nil
}

// classify assigns a failure kind to errors which don't carry one.
func classify(
	kind failure.Kind, err error,
) error {

	if _, ok := failure.KindOf(err); ok {
		return err
	}
	return failure.Wrap(kind, err)
}

func (e *Exporter) stop() {
	if err := e.sink.Stop(); err != nil {
		e.logger.Warnf("Failed to stop sink: %+v", err)
	}
	if err := e.deadLetters.Stop(); err != nil {
		e.logger.Warnf("Failed to stop dead letter handler: %+v", err)
	}
	if err := e.statsService.Stop(); err != nil {
		e.logger.Warnf("Failed to stop stats service: %+v", err)
	}
}
