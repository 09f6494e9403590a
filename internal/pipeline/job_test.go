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
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-errors/errors"
	"github.com/noctarius/es-bulk-exporter/internal/dispatch"
	"github.com/noctarius/es-bulk-exporter/internal/indexing"
	"github.com/noctarius/es-bulk-exporter/internal/mapping"
	"github.com/noctarius/es-bulk-exporter/internal/sinks/memory"
	"github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/deadletter"
	"github.com/noctarius/es-bulk-exporter/spi/encoding"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/noctarius/es-bulk-exporter/spi/schema"
	"github.com/noctarius/es-bulk-exporter/spi/sink"
	"github.com/noctarius/es-bulk-exporter/spi/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const columns = "id BIGINT, name STRING"

type transformerFunc func(row *schema.Row) (*schema.Row, bool, error)

func (tf transformerFunc) Transform(
	row *schema.Row,
) (*schema.Row, bool, error) {

	return tf(row)
}

type closingPartition struct {
	source.Partition
	closed atomic.Bool
}

func (c *closingPartition) Close() error {
	c.closed.Store(true)
	return c.Partition.Close()
}

func testOptions() Options {
	options := DefaultOptions()
	options.RetryWait = time.Millisecond
	options.FlushTimeout = time.Second
	return options
}

func newTemplate(
	t *testing.T, resource string, settings dispatch.Settings,
) *dispatch.Template {

	s, err := schema.ParseColumns(columns)
	require.NoError(t, err)
	plan, err := mapping.NewPlan(s, mapping.Options{})
	require.NoError(t, err)
	r, err := indexing.ParseResource(resource)
	require.NoError(t, err)
	template, err := dispatch.Compile(settings, r, plan)
	require.NoError(t, err)
	return template
}

func partition(
	t *testing.T, template *dispatch.Template, name string, values ...[]any,
) source.Partition {

	rows := make([]*schema.Row, 0, len(values))
	for _, v := range values {
		row, err := schema.NewRow(template.Plan().Schema(), v...)
		require.NoError(t, err)
		rows = append(rows, row)
	}
	return source.NewSlicePartition(name, rows...)
}

func artists(
	from, to int,
) [][]any {

	values := make([][]any, 0)
	for i := from; i <= to; i++ {
		values = append(values, []any{int64(i), "artist-" + strconv.Itoa(i)})
	}
	return values
}

func newJob(
	t *testing.T, template *dispatch.Template, s sink.Sink, options Options, opts ...JobOption,
) *Job {

	job, err := NewJob(template, s, encoding.NewBulkEncoder(config.Modern, encoding.NewJsonEncoder(true)), options, opts...)
	require.NoError(t, err)
	return job
}

func TestJob_ExportsAllRows(t *testing.T) {
	template := newTemplate(t, "hive/artists", dispatch.Settings{Id: "id", AutoCreate: true})
	store := memory.New()
	options := testOptions()
	options.BatchEntries = 2

	report := newJob(t, template, store, options).Run(context.Background(), []source.Partition{
		partition(t, template, "p0", artists(1, 5)...),
	})

	require.NoError(t, report.Err)
	assert.True(t, report.Successful())
	assert.Equal(t, int64(5), report.Read())
	assert.Equal(t, int64(5), report.Written())
	assert.Equal(t, 3, store.BulkCalls())
	assert.Equal(t, 3, report.Partitions[0].Batches)
	assert.Equal(t, 5, store.Count("hive"))

	doc, found := store.Document("hive", "artists", "3")
	require.True(t, found)
	name, _ := doc.Get("name")
	assert.Equal(t, "artist-3", name)
}

func TestJob_BatchesByBytes(t *testing.T) {
	template := newTemplate(t, "hive/artists", dispatch.Settings{AutoCreate: true})
	store := memory.New()
	options := testOptions()
	options.BatchBytes = 1

	report := newJob(t, template, store, options).Run(context.Background(), []source.Partition{
		partition(t, template, "p0", artists(1, 4)...),
	})

	require.True(t, report.Successful())
	// a single oversized row is still sent, alone
	assert.Equal(t, 4, store.BulkCalls())
	assert.Equal(t, 4, store.Count("hive"))
}

func TestJob_CreateConflictFailsRowOnly(t *testing.T) {
	template := newTemplate(t, "hive/artists", dispatch.Settings{Operation: sink.Create, Id: "id", AutoCreate: true})
	store := memory.New()

	report := newJob(t, template, store, testOptions()).Run(context.Background(), []source.Partition{
		partition(t, template, "p0", []any{int64(1), "Fugees"}, []any{int64(1), "Fugees"}),
	})

	require.NoError(t, report.Err)
	assert.False(t, report.Successful())
	assert.Equal(t, int64(1), report.Written())
	assert.Equal(t, int64(1), report.Failed())

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, failure.PermanentRejection, failures[0].Kind)
	assert.Equal(t, int64(2), failures[0].Ordinal)
	assert.Equal(t, "1", failures[0].Id)
	assert.Contains(t, failures[0].Reason, sink.ErrorTypeVersionConflict)
}

func TestJob_UpdateRequiresExistingDocument(t *testing.T) {
	template := newTemplate(t, "hive/artists", dispatch.Settings{Operation: sink.Update, Id: "id", AutoCreate: true})
	store := memory.New()

	report := newJob(t, template, store, testOptions()).Run(context.Background(), []source.Partition{
		partition(t, template, "p0", artists(1, 2)...),
	})
	require.NoError(t, report.Err)
	assert.Equal(t, int64(2), report.Failed())
	assert.Equal(t, 0, store.Count("hive"))

	template = newTemplate(t, "hive/artists", dispatch.Settings{Operation: sink.Upsert, Id: "id", AutoCreate: true})
	report = newJob(t, template, store, testOptions()).Run(context.Background(), []source.Partition{
		partition(t, template, "p0", artists(1, 2)...),
	})
	assert.True(t, report.Successful())
	assert.Equal(t, 2, store.Count("hive"))
}

func TestJob_CoercionFailureIsCollected(t *testing.T) {
	template := newTemplate(t, "hive/artists", dispatch.Settings{Id: "id", AutoCreate: true})
	store := memory.New()

	letters := make([]deadletter.Letter, 0)
	mutex := sync.Mutex{}
	handler := deadletter.HandlerFunc(func(_ context.Context, l []deadletter.Letter) error {
		mutex.Lock()
		defer mutex.Unlock()
		letters = append(letters, l...)
		return nil
	})

	job := newJob(t, template, store, testOptions(), WithDeadLetters(handler))
	report := job.Run(context.Background(), []source.Partition{
		partition(t, template, "p0", []any{int64(1), "a"}, []any{"not-a-number", "b"}, []any{int64(3), "c"}),
	})

	require.NoError(t, report.Err)
	assert.False(t, report.Successful())
	assert.Equal(t, int64(2), report.Written())
	assert.Equal(t, int64(1), report.Failed())
	assert.Equal(t, failure.Coercion, report.Failures()[0].Kind)

	require.Len(t, letters, 1)
	assert.Equal(t, job.Id(), letters[0].Job)
	assert.Equal(t, "p0", letters[0].Partition)
	assert.Equal(t, int64(2), letters[0].Ordinal)
	assert.Equal(t, failure.Coercion, letters[0].Kind)
}

func TestJob_FilteredRows(t *testing.T) {
	template := newTemplate(t, "hive/artists", dispatch.Settings{Id: "id", AutoCreate: true})
	store := memory.New()

	odd := func() (Transformer, error) {
		return transformerFunc(func(row *schema.Row) (*schema.Row, bool, error) {
			return row, row.Values[0].(int64)%2 == 1, nil
		}), nil
	}

	report := newJob(t, template, store, testOptions(), WithTransformers(odd)).Run(
		context.Background(), []source.Partition{partition(t, template, "p0", artists(1, 5)...)},
	)

	assert.True(t, report.Successful())
	assert.Equal(t, int64(5), report.Read())
	assert.Equal(t, int64(2), report.Filtered())
	assert.Equal(t, int64(3), report.Written())
}

func TestJob_RetriesTransientRejections(t *testing.T) {
	template := newTemplate(t, "hive/artists", dispatch.Settings{Id: "id", AutoCreate: true})
	store := memory.New()
	store.RejectNext(2)

	report := newJob(t, template, store, testOptions()).Run(context.Background(), []source.Partition{
		partition(t, template, "p0", artists(1, 3)...),
	})

	require.NoError(t, report.Err)
	assert.True(t, report.Successful())
	assert.Equal(t, 2, store.BulkCalls())
	assert.Equal(t, 1, report.Partitions[0].Retries)
	assert.Equal(t, 3, store.Count("hive"))
}

func TestJob_RetriesExhausted(t *testing.T) {
	template := newTemplate(t, "hive/artists", dispatch.Settings{Id: "id", AutoCreate: true})
	store := memory.New()
	store.RejectNext(100)
	options := testOptions()
	options.RetryCount = 2

	report := newJob(t, template, store, options).Run(context.Background(), []source.Partition{
		partition(t, template, "p0", artists(1, 3)...),
	})

	require.Error(t, report.Err)
	assert.True(t, failure.Is(report.Err, failure.TransientRejection))
	assert.False(t, report.Successful())
	assert.Equal(t, 3, store.BulkCalls())
}

func TestJob_PermanentBulkErrorIsNotRetried(t *testing.T) {
	template := newTemplate(t, "hive/artists", dispatch.Settings{Id: "id", AutoCreate: true})
	store := memory.New()
	store.FailBulk(failure.New(failure.PermanentRejection, "malformed request"))

	report := newJob(t, template, store, testOptions()).Run(context.Background(), []source.Partition{
		partition(t, template, "p0", artists(1, 3)...),
	})

	require.Error(t, report.Err)
	assert.True(t, failure.Is(report.Err, failure.PermanentRejection))
	assert.Equal(t, 1, store.BulkCalls())
	assert.Equal(t, int64(0), report.Failed())
}

func TestJob_FlushTimeout(t *testing.T) {
	template := newTemplate(t, "hive/artists", dispatch.Settings{Id: "id", AutoCreate: true})
	calls := atomic.Int32{}
	blocking := sink.BulkFunc(func(ctx context.Context, _ []sink.WriteRequest) (*sink.BulkResponse, error) {
		calls.Add(1)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	options := testOptions()
	options.FlushTimeout = 20 * time.Millisecond
	options.RetryCount = 1

	report := newJob(t, template, blocking, options).Run(context.Background(), []source.Partition{
		partition(t, template, "p0", artists(1, 2)...),
	})

	require.Error(t, report.Err)
	assert.True(t, failure.Is(report.Err, failure.TransientRejection))
	assert.Equal(t, int32(2), calls.Load())
}

func TestJob_CancellationStopsNewBatches(t *testing.T) {
	template := newTemplate(t, "hive/artists", dispatch.Settings{Id: "id", AutoCreate: true})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := atomic.Int32{}
	written := atomic.Int32{}
	cancelling := sink.BulkFunc(func(ctx context.Context, requests []sink.WriteRequest) (*sink.BulkResponse, error) {
		calls.Add(1)
		cancel()
		// the flush in progress completes regardless
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		written.Add(int32(len(requests)))
		items := make([]sink.ItemResult, len(requests))
		for i := range items {
			items[i] = sink.ItemResult{Status: 201}
		}
		return &sink.BulkResponse{Items: items}, nil
	})
	options := testOptions()
	options.BatchEntries = 1

	p := &closingPartition{Partition: partition(t, template, "p0", artists(1, 5)...)}
	report := newJob(t, template, cancelling, options).Run(ctx, []source.Partition{p})

	require.Error(t, report.Err)
	assert.ErrorIs(t, report.Err, context.Canceled)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), written.Load())
	assert.Equal(t, int64(1), report.Written())
	assert.True(t, p.closed.Load())
}

func TestJob_FailFast(t *testing.T) {
	template := newTemplate(t, "hive/artists", dispatch.Settings{Operation: sink.Create, Id: "id", AutoCreate: true})
	store := memory.New()
	options := testOptions()
	options.BatchEntries = 1
	options.FailFast = true

	report := newJob(t, template, store, options).Run(context.Background(), []source.Partition{
		partition(t, template, "p0", []any{int64(1), "a"}, []any{int64(1), "b"}, []any{int64(2), "c"}),
	})

	require.Error(t, report.Err)
	assert.Equal(t, int64(1), report.Failed())
	assert.Equal(t, 2, store.BulkCalls())
	assert.Equal(t, 1, store.Count("hive"))
}

func TestJob_StaticIndexMissing(t *testing.T) {
	template := newTemplate(t, "hive/artists", dispatch.Settings{Id: "id"})
	store := memory.New(memory.WithAutoCreate(false))

	p := &closingPartition{Partition: partition(t, template, "p0", artists(1, 2)...)}
	report := newJob(t, template, store, testOptions()).Run(context.Background(), []source.Partition{p})

	require.Error(t, report.Err)
	assert.True(t, failure.Is(report.Err, failure.Configuration))
	assert.Equal(t, 0, store.BulkCalls())
	assert.True(t, p.closed.Load())
}

func TestJob_DynamicIndices(t *testing.T) {
	template := newTemplate(t, "artists-{name}", dispatch.Settings{Id: "id", AutoCreate: true})
	store := memory.New()

	report := newJob(t, template, store, testOptions()).Run(context.Background(), []source.Partition{
		partition(t, template, "p0", []any{int64(1), "Rock"}, []any{int64(2), "pop"}, []any{int64(3), "rock"}),
	})

	require.True(t, report.Successful())
	assert.Equal(t, 2, store.Count("artists-rock"))
	assert.Equal(t, 1, store.Count("artists-pop"))
}

func TestJob_MultiplePartitions(t *testing.T) {
	template := newTemplate(t, "hive/artists", dispatch.Settings{Id: "id", AutoCreate: true})
	store := memory.New()
	options := testOptions()
	options.BatchEntries = 3

	partitions := []source.Partition{
		partition(t, template, "p0", artists(1, 4)...),
		partition(t, template, "p1", artists(5, 8)...),
		partition(t, template, "p2", artists(9, 12)...),
	}
	report := newJob(t, template, store, options, WithWorkers(2)).Run(context.Background(), partitions)

	require.NoError(t, report.Err)
	assert.True(t, report.Successful())
	assert.Equal(t, int64(12), report.Written())
	assert.Equal(t, 12, store.Count("hive"))
	require.Len(t, report.Partitions, 3)
	for i, p := range report.Partitions {
		assert.Equal(t, "p"+strconv.Itoa(i), p.Partition)
		assert.Equal(t, int64(4), p.Written)
		assert.Equal(t, 2, p.Batches)
	}
}

func TestJob_OnePartitionFailureAbortsJob(t *testing.T) {
	template := newTemplate(t, "hive/artists", dispatch.Settings{Id: "id", AutoCreate: true})
	failing := sink.BulkFunc(func(_ context.Context, _ []sink.WriteRequest) (*sink.BulkResponse, error) {
		return nil, errors.Errorf("connection reset")
	})

	report := newJob(t, template, failing, testOptions()).Run(context.Background(), []source.Partition{
		partition(t, template, "p0", artists(1, 2)...),
	})

	require.Error(t, report.Err)
	assert.False(t, report.Successful())
	assert.Contains(t, report.String(), "failed")
}

func TestJob_PreparationFailureStartsNoPartition(t *testing.T) {
	template := newTemplate(t, "hive/artists", dispatch.Settings{Id: "id", AutoCreate: true})
	store := memory.New()

	created := 0
	factory := func() (Transformer, error) {
		created++
		if created == 3 {
			return nil, errors.Errorf("no evaluator for partition")
		}
		return identity{}, nil
	}

	partitions := []*closingPartition{
		{Partition: partition(t, template, "p0", artists(1, 4)...)},
		{Partition: partition(t, template, "p1", artists(5, 8)...)},
		{Partition: partition(t, template, "p2", artists(9, 12)...)},
		{Partition: partition(t, template, "p3", artists(13, 16)...)},
	}
	sources := make([]source.Partition, len(partitions))
	for i, p := range partitions {
		sources[i] = p
	}

	report := newJob(t, template, store, testOptions(), WithTransformers(factory), WithWorkers(2)).
		Run(context.Background(), sources)

	require.Error(t, report.Err)
	assert.ErrorContains(t, report.Err, "no evaluator for partition")
	assert.Equal(t, int64(0), report.Read())
	assert.Equal(t, 0, store.BulkCalls())
	for _, p := range partitions {
		assert.True(t, p.closed.Load(), p.Name())
	}
}
