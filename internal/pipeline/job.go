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

package pipeline

import (
	"context"
	"time"

	"github.com/go-errors/errors"
	"github.com/hashicorp/go-uuid"
	"github.com/noctarius/es-bulk-exporter/internal/dispatch"
	"github.com/noctarius/es-bulk-exporter/internal/stats"
	"github.com/noctarius/es-bulk-exporter/internal/supporting/logging"
	"github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/deadletter"
	"github.com/noctarius/es-bulk-exporter/spi/encoding"
	"github.com/noctarius/es-bulk-exporter/spi/schema"
	"github.com/noctarius/es-bulk-exporter/spi/sink"
	"github.com/noctarius/es-bulk-exporter/spi/source"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type identity struct{}

func (identity) Transform(
	row *schema.Row,
) (*schema.Row, bool, error) {

	return row, true, nil
}

// Job exports a set of partitions with a bounded number of
// concurrent exporters. Exporters share the immutable template and
// the sink, nothing else.
type Job struct {
	id           string
	template     *dispatch.Template
	sink         sink.Sink
	deadLetters  deadletter.Handler
	transformers func() (Transformer, error)
	bulk         *encoding.BulkEncoder
	options      Options
	workers      int
	statsService *stats.Service
	logger       *logging.Logger
	clock        func() time.Time
}

type JobOption func(job *Job)

// WithTransformers sets the factory creating one Transformer per
// exporter.
func WithTransformers(
	factory func() (Transformer, error),
) JobOption {

	return func(job *Job) {
		job.transformers = factory
	}
}

func WithDeadLetters(
	handler deadletter.Handler,
) JobOption {

	return func(job *Job) {
		job.deadLetters = handler
	}
}

func WithWorkers(
	workers int,
) JobOption {

	return func(job *Job) {
		job.workers = workers
	}
}

func WithStats(
	service *stats.Service,
) JobOption {

	return func(job *Job) {
		job.statsService = service
	}
}

func WithClock(
	clock func() time.Time,
) JobOption {

	return func(job *Job) {
		job.clock = clock
	}
}

func NewJob(
	template *dispatch.Template, s sink.Sink, bulk *encoding.BulkEncoder, options Options, opts ...JobOption,
) (*Job, error) {

	id, err := uuid.GenerateUUID()
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	logger, err := logging.NewLogger("ExportJob")
	if err != nil {
		return nil, err
	}

	noop, err := deadletter.NewHandler(config.NoDeadLetter, nil)
	if err != nil {
		return nil, err
	}

	job := &Job{
		id:           id,
		template:     template,
		sink:         s,
		deadLetters:  noop,
		transformers: func() (Transformer, error) { return identity{}, nil },
		bulk:         bulk,
		options:      options,
		workers:      1,
		logger:       logger,
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(job)
	}
	if job.workers < 1 {
		job.workers = 1
	}
	return job, nil
}

func (j *Job) Id() string {
	return j.id
}

// Run exports all partitions and reports the outcome. The returned
// error is the job level error, per row failures only show in the
// report. Cancelling ctx lets started flushes finish, no new batch
// is sent afterwards.
func (j *Job) Run(
	ctx context.Context, partitions []source.Partition,
) *Report {

	start := j.clock()
	report := &Report{
		JobId:      j.id,
		Partitions: make([]*PartitionReport, len(partitions)),
	}

	if err := j.template.Verify(ctx, j.sink); err != nil {
		for _, partition := range partitions {
			partition.Close()
		}
		report.Err = err
		return report
	}

	j.logger.Infof("Starting job %s with %d partitions on %d workers", j.id, len(partitions), j.workers)

	// all exporters exist before the first one starts, a failing
	// setup never leaves workers behind
	exporters := make([]*Exporter, 0, len(partitions))
	for i, partition := range partitions {
		exporter, err := j.newExporter(partition)
		if err != nil {
			for _, p := range partitions {
				p.Close()
			}
			report.Err = err
			report.Duration = j.clock().Sub(start)
			j.logger.Errorf("Job %s failed to prepare partition %s: %s", j.id, partition.Name(), err)
			return report
		}
		report.Partitions[i] = exporter.report
		exporters = append(exporters, exporter)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(j.workers)
	for _, exporter := range exporters {
		group.Go(func() error {
			_, err := exporter.Run(groupCtx)
			return err
		})
	}

	if err := group.Wait(); err != nil && report.Err == nil {
		report.Err = err
	}
	report.Duration = j.clock().Sub(start)

	if report.Successful() {
		j.logger.Infof("Export %s", report)
	} else {
		j.logger.Errorf("Export %s", report)
		for _, f := range report.Failures() {
			j.logger.Verbosef("Failed row %s", f)
		}
		if report.Err != nil {
			j.logger.Errorf("Job error: %s", report.Err)
		}
	}
	return report
}

func (j *Job) newExporter(
	partition source.Partition,
) (*Exporter, error) {

	logger, err := j.logger.Named(partition.Name())
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if j.options.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(j.options.RequestsPerSecond), 1)
	}

	var reporter *stats.Reporter
	if j.statsService != nil {
		reporter = j.statsService.NewReporter("exporter")
	}

	transformer, err := j.transformers()
	if err != nil {
		return nil, err
	}

	return &Exporter{
		job:         j.id,
		partition:   partition,
		template:    j.template,
		dispatcher:  j.template.NewDispatcher(j.sink, logger),
		sink:        j.sink,
		deadLetters: j.deadLetters,
		transformer: transformer,
		bulk:        j.bulk,
		options:     j.options,
		limiter:     limiter,
		reporter:    reporter,
		logger:      logger,
		clock:       j.clock,
		report:      &PartitionReport{Partition: partition.Name()},
	}, nil
}
