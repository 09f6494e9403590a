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
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/hashicorp/go-uuid"
	"github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/document"
	"github.com/noctarius/es-bulk-exporter/spi/sink"
	"github.com/samber/lo"
)

func init() {
	sink.RegisterSink(config.Memory, newMemorySinkWithConfig)
}

type storedDocument struct {
	source  *document.Object
	parent  string
	routing string
	version int64
	expires time.Time
}

type index struct {
	mappings  map[string]document.Mapping
	documents map[string]*storedDocument
}

type Option func(s *Sink)

func WithDateDetection(enabled bool) Option {
	return func(s *Sink) {
		s.dateDetection = enabled
	}
}

func WithAutoCreate(enabled bool) Option {
	return func(s *Sink) {
		s.autoCreate = enabled
	}
}

func WithIndices(names ...string) Option {
	return func(s *Sink) {
		for _, name := range names {
			s.createIndex(name)
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Sink) {
		s.clock = clock
	}
}

// Sink is an in-process document store following the bulk API
// semantics of Elasticsearch: dynamic mappings, write conflicts,
// partial updates, expiring documents.
type Sink struct {
	mutex         sync.Mutex
	indices       map[string]*index
	dateDetection bool
	autoCreate    bool
	rejections    int
	bulkError     error
	bulkCalls     int
	clock         func() time.Time
}

func New(options ...Option) *Sink {
	s := &Sink{
		indices:       make(map[string]*index),
		dateDetection: true,
		autoCreate:    true,
		clock:         time.Now,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func newMemorySinkWithConfig(c *config.Config) (sink.Sink, error) {
	return New(
		WithDateDetection(config.GetOrDefault(c, config.PropertyMappingDateDetection, true)),
		WithAutoCreate(config.GetOrDefault(c, config.PropertyResourceAutoCreate, true)),
		WithIndices(config.GetOrDefault(c, config.PropertyMemoryIndices, []string{})...),
	), nil
}

func (s *Sink) Start() error {
	return nil
}

func (s *Sink) Stop() error {
	return nil
}

// RejectNext makes the next n write requests fail with a capacity
// rejection.
func (s *Sink) RejectNext(n int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.rejections = n
}

// FailBulk makes every following bulk call fail as a whole until
// reset with nil.
func (s *Sink) FailBulk(err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.bulkError = err
}

func (s *Sink) BulkCalls() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.bulkCalls
}

func (s *Sink) CreateIndex(name string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.createIndex(name)
}

func (s *Sink) createIndex(name string) *index {
	if idx, present := s.indices[name]; present {
		return idx
	}
	idx := &index{
		mappings:  make(map[string]document.Mapping),
		documents: make(map[string]*storedDocument),
	}
	s.indices[name] = idx
	return idx
}

func (s *Sink) IndexExists(
	_ context.Context, name string,
) (bool, error) {

	s.mutex.Lock()
	defer s.mutex.Unlock()
	_, present := s.indices[name]
	return present, nil
}

func (s *Sink) Indices() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	names := lo.Keys(s.indices)
	slices.Sort(names)
	return names
}

// Mapping reports the mapping of the named type, or of the index
// itself if the documents carried no type.
func (s *Sink) Mapping(
	_ context.Context, indexName, name string,
) (document.Mapping, error) {

	s.mutex.Lock()
	defer s.mutex.Unlock()
	idx, present := s.indices[indexName]
	if !present {
		return nil, errors.Errorf("no such index [%s]", indexName)
	}
	m, present := idx.mappings[name]
	if !present {
		return document.Mapping{}, nil
	}
	return m.Clone(), nil
}

// Document returns a copy of a live document.
func (s *Sink) Document(
	indexName, typeName, id string,
) (*document.Object, bool) {

	s.mutex.Lock()
	defer s.mutex.Unlock()
	idx, present := s.indices[indexName]
	if !present {
		return nil, false
	}
	stored := s.lookup(idx, key(typeName, id))
	if stored == nil {
		return nil, false
	}
	return stored.source.Clone(), true
}

// Count returns the number of live documents in an index.
func (s *Sink) Count(
	indexName string,
) int {

	s.mutex.Lock()
	defer s.mutex.Unlock()
	idx, present := s.indices[indexName]
	if !present {
		return 0
	}
	count := 0
	for k := range idx.documents {
		if s.lookup(idx, k) != nil {
			count++
		}
	}
	return count
}

func (s *Sink) Bulk(
	_ context.Context, requests []sink.WriteRequest,
) (*sink.BulkResponse, error) {

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.bulkCalls++
	if s.bulkError != nil {
		return nil, s.bulkError
	}

	items := make([]sink.ItemResult, 0, len(requests))
	for _, request := range requests {
		items = append(items, s.write(request))
	}
	return &sink.BulkResponse{Items: items}, nil
}

func (s *Sink) write(
	request sink.WriteRequest,
) sink.ItemResult {

	metadata := request.Document.Metadata
	if s.rejections > 0 {
		s.rejections--
		return sink.ItemResult{
			Status:    429,
			ErrorType: sink.ErrorTypeRejectedExecution,
			Reason:    "rejected execution, bulk queue capacity reached",
			Id:        metadata.ID,
		}
	}

	idx, present := s.indices[request.Index]
	if !present {
		if !s.autoCreate {
			return sink.ItemResult{
				Status:    404,
				ErrorType: sink.ErrorTypeIndexNotFound,
				Reason:    fmt.Sprintf("no such index [%s]", request.Index),
				Id:        metadata.ID,
			}
		}
		idx = s.createIndex(request.Index)
	}

	id := metadata.ID
	if id == "" {
		if request.Operation.RequiresId() {
			return sink.ItemResult{
				Status:    400,
				ErrorType: "action_request_validation_exception",
				Reason:    "id is missing",
			}
		}
		generated, err := uuid.GenerateUUID()
		if err != nil {
			return sink.ItemResult{Status: 500, ErrorType: "exception", Reason: err.Error()}
		}
		id = generated
	}

	k := key(request.Type, id)
	existing := s.lookup(idx, k)
	if metadata.Version != 0 && existing != nil && metadata.Version <= existing.version {
		return conflict(request.Type, id, fmt.Sprintf(
			"version conflict, current version [%d] is higher or equal to the one provided [%d]",
			existing.version, metadata.Version,
		))
	}

	var source *document.Object
	switch request.Operation {
	case sink.Create:
		if existing != nil {
			return conflict(request.Type, id, "version conflict, document already exists")
		}
		source = request.Document.Source.Clone()
	case sink.Update:
		if existing == nil {
			return sink.ItemResult{
				Status:    404,
				ErrorType: sink.ErrorTypeDocumentMissing,
				Reason:    fmt.Sprintf("[%s][%s]: document missing", request.Type, id),
				Id:        id,
			}
		}
		source = existing.source.Clone()
		source.Merge(request.Document.Source)
	case sink.Upsert:
		if existing == nil {
			source = request.Document.Source.Clone()
		} else {
			source = existing.source.Clone()
			source.Merge(request.Document.Source)
		}
	default:
		source = request.Document.Source.Clone()
	}

	mappingName := request.Type
	if mappingName == "" {
		mappingName = request.Index
	}
	current := idx.mappings[mappingName]
	merged, err := current.Merge(inferMapping(source, current, s.dateDetection))
	if err != nil {
		return sink.ItemResult{
			Status:    400,
			ErrorType: sink.ErrorTypeMapperParsing,
			Reason:    err.Error(),
			Id:        id,
		}
	}
	idx.mappings[mappingName] = merged

	stored := &storedDocument{
		source:  source,
		parent:  metadata.Parent,
		routing: metadata.Routing,
		version: 1,
	}
	if existing != nil {
		stored.version = existing.version + 1
	}
	if metadata.Version != 0 {
		stored.version = metadata.Version
	}
	if metadata.TTL > 0 {
		stored.expires = s.clock().Add(metadata.TTL)
	}
	idx.documents[k] = stored

	status := 201
	if existing != nil {
		status = 200
	}
	return sink.ItemResult{Status: status, Id: id}
}

// lookup returns a live document, dropping it if it expired.
func (s *Sink) lookup(
	idx *index, k string,
) *storedDocument {

	stored, present := idx.documents[k]
	if !present {
		return nil
	}
	if !stored.expires.IsZero() && !s.clock().Before(stored.expires) {
		delete(idx.documents, k)
		return nil
	}
	return stored
}

func key(
	typeName, id string,
) string {

	return typeName + "\x00" + id
}

func conflict(
	typeName, id, reason string,
) sink.ItemResult {

	return sink.ItemResult{
		Status:    409,
		ErrorType: sink.ErrorTypeVersionConflict,
		Reason:    fmt.Sprintf("[%s][%s]: %s", typeName, id, reason),
		Id:        id,
	}
}
