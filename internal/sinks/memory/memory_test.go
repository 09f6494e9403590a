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

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/document"
	"github.com/noctarius/es-bulk-exporter/spi/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(
	operation sink.Operation, id string, source *document.Object,
) sink.WriteRequest {

	return sink.WriteRequest{
		Operation: operation,
		Index:     "hive",
		Type:      "artists",
		Document: &document.Document{
			Source:   source,
			Metadata: document.Metadata{ID: id},
		},
	}
}

func bulk(
	t *testing.T, s *Sink, requests ...sink.WriteRequest,
) []sink.ItemResult {

	response, err := s.Bulk(context.Background(), requests)
	require.NoError(t, err)
	require.Len(t, response.Items, len(requests))
	return response.Items
}

func TestSink_CreateConflict(t *testing.T) {
	s := New()
	items := bulk(t, s,
		write(sink.Create, "1", document.ObjectOf("name", "a")),
		write(sink.Create, "1", document.ObjectOf("name", "b")),
	)
	assert.Equal(t, 201, items[0].Status)
	assert.Equal(t, 409, items[1].Status)
	assert.Equal(t, sink.ErrorTypeVersionConflict, items[1].ErrorType)
	assert.False(t, items[1].Transient())

	source, present := s.Document("hive", "artists", "1")
	require.True(t, present)
	name, _ := source.Get("name")
	assert.Equal(t, "a", name)
}

func TestSink_UpdateRequiresDocument(t *testing.T) {
	s := New()
	items := bulk(t, s, write(sink.Update, "1", document.ObjectOf("name", "a")))
	assert.Equal(t, 404, items[0].Status)
	assert.Equal(t, sink.ErrorTypeDocumentMissing, items[0].ErrorType)
	assert.Equal(t, 0, s.Count("hive"))

	items = bulk(t, s,
		write(sink.Index, "1", document.ObjectOf("name", "a", "age", int64(1))),
		write(sink.Update, "1", document.ObjectOf("age", int64(2))),
	)
	assert.Equal(t, 201, items[0].Status)
	assert.Equal(t, 200, items[1].Status)

	source, _ := s.Document("hive", "artists", "1")
	assert.Equal(t, map[string]any{"name": "a", "age": int64(2)}, source.ToMap())
}

func TestSink_Upsert(t *testing.T) {
	s := New()
	items := bulk(t, s,
		write(sink.Upsert, "1", document.ObjectOf("name", "a")),
		write(sink.Upsert, "1", document.ObjectOf("genre", "hip hop")),
	)
	assert.Equal(t, 201, items[0].Status)
	assert.Equal(t, 200, items[1].Status)

	source, _ := s.Document("hive", "artists", "1")
	assert.Equal(t, map[string]any{"name": "a", "genre": "hip hop"}, source.ToMap())
}

func TestSink_GeneratedIds(t *testing.T) {
	s := New()
	items := bulk(t, s,
		write(sink.Index, "", document.ObjectOf("name", "a")),
		write(sink.Index, "", document.ObjectOf("name", "a")),
		write(sink.Update, "", document.ObjectOf("name", "a")),
	)
	assert.NotEqual(t, items[0].Id, items[1].Id)
	assert.Equal(t, 2, s.Count("hive"))
	assert.Equal(t, 400, items[2].Status)
}

func TestSink_TTL(t *testing.T) {
	now := time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(WithClock(func() time.Time { return now }))

	request := write(sink.Index, "1", document.ObjectOf("name", "a"))
	request.Document.Metadata.TTL = 5 * time.Minute
	bulk(t, s, request)
	assert.Equal(t, 1, s.Count("hive"))

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 0, s.Count("hive"))
	_, present := s.Document("hive", "artists", "1")
	assert.False(t, present)

	items := bulk(t, s, write(sink.Update, "1", document.ObjectOf("name", "b")))
	assert.Equal(t, 404, items[0].Status)
}

func TestSink_ExternalVersion(t *testing.T) {
	s := New()
	request := write(sink.Index, "1", document.ObjectOf("name", "a"))
	request.Document.Metadata.Version = 5
	bulk(t, s, request)

	items := bulk(t, s, request)
	assert.Equal(t, 409, items[0].Status)

	request.Document.Metadata.Version = 6
	items = bulk(t, s, request)
	assert.Equal(t, 200, items[0].Status)
}

func TestSink_Rejections(t *testing.T) {
	s := New()
	s.RejectNext(1)
	items := bulk(t, s,
		write(sink.Index, "1", document.ObjectOf("name", "a")),
		write(sink.Index, "2", document.ObjectOf("name", "b")),
	)
	assert.Equal(t, 429, items[0].Status)
	assert.True(t, items[0].Transient())
	assert.Equal(t, 201, items[1].Status)

	s.FailBulk(assert.AnError)
	_, err := s.Bulk(context.Background(), []sink.WriteRequest{write(sink.Index, "3", document.NewObject())})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 2, s.BulkCalls())
}

func TestSink_AutoCreateDisabled(t *testing.T) {
	s := New(WithAutoCreate(false), WithIndices("existing"))

	exists, err := s.IndexExists(context.Background(), "hive")
	require.NoError(t, err)
	assert.False(t, exists)

	items := bulk(t, s, write(sink.Index, "1", document.ObjectOf("name", "a")))
	assert.Equal(t, 404, items[0].Status)
	assert.Equal(t, sink.ErrorTypeIndexNotFound, items[0].ErrorType)
	assert.Equal(t, []string{"existing"}, s.Indices())
}

func TestSink_DynamicMapping(t *testing.T) {
	s := New()
	bulk(t, s, write(sink.Index, "1", document.ObjectOf(
		"id", int64(1),
		"score", 1.5,
		"active", true,
		"ts", "2012-10-06T19:20:25.000Z",
		"label", "not a date",
		"links", document.ObjectOf("url", "u", "picture", nil),
		"tags", []any{"a", nil, "b"},
		"empty", []any{},
	)))

	m, err := s.Mapping(context.Background(), "hive", "artists")
	require.NoError(t, err)
	assert.Equal(t,
		"artists=[active=BOOLEAN, id=LONG, label=STRING, links=[url=STRING], score=DOUBLE, tags=STRING, ts=DATE]",
		document.Describe("artists", m),
	)

	_, err = s.Mapping(context.Background(), "missing", "artists")
	assert.Error(t, err)
}

func TestSink_DateDetectionDisabled(t *testing.T) {
	s := New(WithDateDetection(false))
	bulk(t, s, write(sink.Index, "1", document.ObjectOf("ts", "2012-10-06")))

	m, err := s.Mapping(context.Background(), "hive", "artists")
	require.NoError(t, err)
	assert.Equal(t, "[ts=STRING]", m.String())
}

func TestSink_MappingConflict(t *testing.T) {
	s := New()
	items := bulk(t, s,
		write(sink.Index, "1", document.ObjectOf("ts", "2012-10-06", "links", document.ObjectOf("url", "u"))),
		write(sink.Index, "2", document.ObjectOf("ts", "yesterday")),
		write(sink.Index, "3", document.ObjectOf("links", "flat")),
		write(sink.Index, "4", document.ObjectOf("ts", "2013-01-01")),
	)
	assert.Equal(t, 201, items[0].Status)
	assert.Equal(t, 400, items[1].Status)
	assert.Equal(t, sink.ErrorTypeMapperParsing, items[1].ErrorType)
	assert.Contains(t, items[1].Reason, "mapper [ts] cannot be changed from type [DATE] to [STRING]")
	assert.Equal(t, 400, items[2].Status)
	assert.Equal(t, 201, items[3].Status)
	assert.Equal(t, 2, s.Count("hive"))
}

func TestSink_UntypedMappingName(t *testing.T) {
	s := New()
	request := write(sink.Index, "1", document.ObjectOf("id", int64(12)))
	request.Index = "pattern-12"
	request.Type = ""
	bulk(t, s, request)

	m, err := s.Mapping(context.Background(), "pattern-12", "pattern-12")
	require.NoError(t, err)
	assert.Equal(t, "[id=LONG]", m.String())
}

func TestSink_Registered(t *testing.T) {
	autoCreate := false
	s, err := sink.NewSink(config.Memory, &config.Config{
		Resource: config.ResourceConfig{AutoCreate: &autoCreate},
		Sink:     config.SinkConfig{Memory: config.MemoryConfig{Indices: []string{"hive"}}},
	})
	require.NoError(t, err)

	exists, err := s.IndexExists(context.Background(), "hive")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.IndexExists(context.Background(), "other")
	require.NoError(t, err)
	assert.False(t, exists)
}
