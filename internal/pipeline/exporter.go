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
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-errors/errors"
	"github.com/noctarius/es-bulk-exporter/internal/dispatch"
	"github.com/noctarius/es-bulk-exporter/internal/stats"
	"github.com/noctarius/es-bulk-exporter/internal/supporting/logging"
	"github.com/noctarius/es-bulk-exporter/spi/deadletter"
	"github.com/noctarius/es-bulk-exporter/spi/encoding"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/noctarius/es-bulk-exporter/spi/schema"
	"github.com/noctarius/es-bulk-exporter/spi/sink"
	"github.com/noctarius/es-bulk-exporter/spi/source"
	"golang.org/x/time/rate"
)

// Transformer filters and projects source rows before conversion.
type Transformer interface {
	Transform(row *schema.Row) (*schema.Row, bool, error)
}

type pending struct {
	ordinal int64
	request sink.WriteRequest
}

// Exporter runs the export of one partition. It owns all of its
// state and is driven by a single goroutine.
type Exporter struct {
	job         string
	partition   source.Partition
	template    *dispatch.Template
	dispatcher  *dispatch.Dispatcher
	sink        sink.Sink
	deadLetters deadletter.Handler
	transformer Transformer
	bulk        *encoding.BulkEncoder
	options     Options
	limiter     *rate.Limiter
	reporter    *stats.Reporter
	logger      *logging.Logger
	clock       func() time.Time

	report     *PartitionReport
	batch      []pending
	batchBytes int
	letters    []deadletter.Letter
}

func (e *Exporter) Run(
	ctx context.Context,
) (*PartitionReport, error) {

	defer e.partition.Close()
	defer e.publish(ctx)

	e.logger.Verbosef("Exporting partition %s", e.partition.Name())
	for ordinal := int64(1); ; ordinal++ {
		if err := ctx.Err(); err != nil {
			return e.report, e.cancelled(err)
		}

		row, err := e.partition.Next()
		if err == io.EOF {
			break
		}
		if _, ok := failure.KindOf(err); err != nil && !ok {
			return e.report, source.NewReadError(e.partition.Name(), err)
		}
		e.report.Read++
		e.reporter.Incr("rows_read")

		var next *pending
		var size int
		if err == nil {
			next, size, err = e.process(ctx, ordinal, row)
		}
		if err != nil {
			if err := e.reject(ordinal, err); err != nil {
				return e.report, err
			}
			continue
		}
		if next == nil {
			continue
		}

		// a row never joins a batch it would push over the byte limit
		if len(e.batch) > 0 && e.batchBytes+size > e.options.BatchBytes {
			if err := e.flush(ctx); err != nil {
				return e.report, err
			}
		}
		e.batch = append(e.batch, *next)
		e.batchBytes += size

		if e.full() {
			if err := e.flush(ctx); err != nil {
				return e.report, err
			}
		}
	}

	if err := e.flush(ctx); err != nil {
		return e.report, err
	}
	e.logger.Verbosef(
		"Partition %s done: %d written, %d failed", e.partition.Name(), e.report.Written, e.report.Failed,
	)
	return e.report, nil
}

// process turns a row into a pending write request. Filtered rows
// yield no request.
func (e *Exporter) process(
	ctx context.Context, ordinal int64, row *schema.Row,
) (*pending, int, error) {

	row, keep, err := e.transformer.Transform(row)
	if err != nil {
		return nil, 0, err
	}
	if !keep {
		e.report.Filtered++
		e.reporter.Incr("rows_filtered")
		return nil, 0, nil
	}

	obj, err := e.template.Plan().Convert(row)
	if err != nil {
		return nil, 0, err
	}

	request, err := e.dispatcher.Dispatch(ctx, obj)
	if err != nil {
		return nil, 0, err
	}

	size, err := e.bulk.Size(request)
	if err != nil {
		return nil, 0, err
	}
	return &pending{ordinal: ordinal, request: request}, size, nil
}

// reject records a per-row failure. Any other error aborts the
// partition.
func (e *Exporter) reject(
	ordinal int64, err error,
) error {

	kind, ok := failure.KindOf(err)
	if !ok || !kind.PerRow() {
		return err
	}
	e.fail(Failure{
		Partition: e.partition.Name(),
		Ordinal:   ordinal,
		Kind:      kind,
		Reason:    failure.ReasonOf(err),
	})
	return nil
}

func (e *Exporter) fail(
	f Failure,
) {

	e.report.Failed++
	e.report.Failures = append(e.report.Failures, f)
	e.letters = append(e.letters, f.letter(e.job, e.clock()))
	e.reporter.Incr("rows_failed", stats.Tag("kind", string(f.Kind)))
	e.logger.Debugf("Row failed: %s", f)
}

func (e *Exporter) full() bool {
	return len(e.batch) >= e.options.BatchEntries || e.batchBytes >= e.options.BatchBytes
}

// flush writes the current batch. Once started, a flush runs to
// completion even if the job is cancelled.
func (e *Exporter) flush(
	ctx context.Context,
) error {

	if len(e.batch) == 0 {
		return nil
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return e.cancelled(err)
		}
	}
	if err := ctx.Err(); err != nil {
		return e.cancelled(err)
	}

	batch, size := e.batch, e.batchBytes
	e.batch = nil
	e.batchBytes = 0

	start := e.clock()
	results, attempts, err := e.send(context.WithoutCancel(ctx), batch)
	e.report.Batches++
	e.report.Retries += attempts - 1
	e.reporter.Incr("flushes")
	e.reporter.Add("bulk_bytes", size)
	e.reporter.Add("retries", attempts-1)
	e.reporter.Observe("flush_duration", e.clock().Sub(start))
	if err != nil {
		return err
	}

	for i, result := range results {
		request := batch[i].request
		if !result.Failed() {
			e.report.Written++
			continue
		}
		reason := result.Reason
		if result.ErrorType != "" {
			reason = result.ErrorType + ": " + reason
		}
		id := request.Document.Metadata.ID
		if id == "" {
			id = result.Id
		}
		e.fail(Failure{
			Partition: e.partition.Name(),
			Ordinal:   batch[i].ordinal,
			Index:     request.Index,
			Id:        id,
			Kind:      failure.PermanentRejection,
			Reason:    reason,
			document:  request.Document.Source,
		})
	}
	e.reporter.Add("rows_written", len(batch)-int(e.countFailed(results)))
	e.publish(ctx)

	if e.options.FailFast && e.report.Failed > 0 {
		return errors.Errorf("aborting after %d failed rows, first: %s", e.report.Failed, e.report.Failures[0])
	}
	return nil
}

func (e *Exporter) countFailed(
	results []sink.ItemResult,
) int64 {

	failed := int64(0)
	for _, result := range results {
		if result.Failed() {
			failed++
		}
	}
	return failed
}

// send delivers a batch, retrying the requests rejected with a
// transient error. It returns the final result of every request
// and the number of attempts made.
func (e *Exporter) send(
	ctx context.Context, batch []pending,
) ([]sink.ItemResult, int, error) {

	results := make([]sink.ItemResult, len(batch))
	outstanding := make([]int, len(batch))
	for i := range outstanding {
		outstanding[i] = i
	}

	attempts := 0
	operation := func() error {
		attempts++
		requests := make([]sink.WriteRequest, len(outstanding))
		for i, index := range outstanding {
			requests[i] = batch[index].request
		}

		attemptCtx, cancel := context.WithTimeout(ctx, e.options.FlushTimeout)
		defer cancel()

		response, err := e.sink.Bulk(attemptCtx, requests)
		if err != nil {
			if attemptCtx.Err() != nil {
				return failure.New(failure.TransientRejection, "bulk request timed out after %s", e.options.FlushTimeout)
			}
			if failure.Is(err, failure.TransientRejection) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(response.Items) != len(requests) {
			return backoff.Permanent(errors.Errorf(
				"sink acknowledged %d of %d requests", len(response.Items), len(requests),
			))
		}

		retry := make([]int, 0)
		for i, item := range response.Items {
			index := outstanding[i]
			results[index] = item
			if item.Transient() {
				retry = append(retry, index)
			}
		}
		outstanding = retry
		if len(outstanding) > 0 {
			return failure.New(
				failure.TransientRejection, "%d of %d requests were rejected", len(outstanding), len(requests),
			)
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = e.options.RetryWait
	policy.MaxInterval = 10 * e.options.RetryWait
	policy.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		e.logger.Warnf("Bulk request of %d rows failed, retrying in %s: %s", len(outstanding), wait, err)
	}

	err := backoff.RetryNotify(operation, backoff.WithMaxRetries(policy, uint64(e.options.RetryCount)), notify)
	if err != nil {
		if failure.Is(err, failure.TransientRejection) {
			return nil, attempts, failure.New(
				failure.TransientRejection, "bulk request failed after %d attempts: %s", attempts, failure.ReasonOf(err),
			)
		}
		return nil, attempts, err
	}
	return results, attempts, nil
}

func (e *Exporter) publish(
	ctx context.Context,
) {

	if len(e.letters) == 0 {
		return
	}
	letters := e.letters
	e.letters = nil
	if err := e.deadLetters.Publish(context.WithoutCancel(ctx), letters); err != nil {
		e.logger.Warnf("Failed to publish %d dead letters: %+v", len(letters), err)
	}
}

func (e *Exporter) cancelled(
	err error,
) error {

	if len(e.batch) > 0 {
		e.logger.Infof("Job cancelled, %d buffered rows of %s were not written", len(e.batch), e.partition.Name())
	}
	return errors.Wrap(err, 0)
}
