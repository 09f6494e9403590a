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

package dispatch

import (
	"context"

	"github.com/noctarius/es-bulk-exporter/internal/indexing"
	"github.com/noctarius/es-bulk-exporter/internal/mapping"
	"github.com/noctarius/es-bulk-exporter/internal/supporting"
	"github.com/noctarius/es-bulk-exporter/internal/supporting/logging"
	"github.com/noctarius/es-bulk-exporter/spi/document"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/noctarius/es-bulk-exporter/spi/sink"
)

// Settings are the write options as configured. Metadata entries
// are field paths or <constant> values.
type Settings struct {
	Operation  sink.Operation
	Id         string
	Parent     string
	Routing    string
	Version    string
	TTL        string
	Timestamp  string
	AutoCreate bool
}

// Template is the validated, immutable form of the write settings
// and may be shared by all workers.
type Template struct {
	operation  sink.Operation
	resource   *indexing.Resource
	resolver   *indexing.Resolver
	plan       *mapping.Plan
	id         value
	parent     value
	routing    value
	version    value
	ttl        value
	timestamp  value
	autoCreate bool
}

func Compile(
	settings Settings, resource *indexing.Resource, plan *mapping.Plan,
) (*Template, error) {

	operation := settings.Operation
	if operation == "" {
		operation = sink.Index
	}

	resolver, err := resource.Bind(plan)
	if err != nil {
		return nil, err
	}

	t := &Template{
		operation:  operation,
		resource:   resource,
		resolver:   resolver,
		plan:       plan,
		autoCreate: settings.AutoCreate,
	}

	for _, entry := range []struct {
		target  *value
		name    string
		setting string
	}{
		{&t.id, "id", settings.Id},
		{&t.parent, "parent", settings.Parent},
		{&t.routing, "routing", settings.Routing},
		{&t.version, "version", settings.Version},
		{&t.ttl, "ttl", settings.TTL},
		{&t.timestamp, "timestamp", settings.Timestamp},
	} {
		if *entry.target, err = parseValue(entry.name, entry.setting, plan); err != nil {
			return nil, err
		}
	}

	if operation.RequiresId() && !t.id.configured() {
		return nil, failure.New(failure.Configuration, "write operation '%s' requires an id field", operation)
	}
	if t.id.constant != nil {
		return nil, failure.New(failure.Configuration, "id must reference a field, constants would collide")
	}
	if t.ttl.constant != nil {
		if ttl, err := ParseTTL(*t.ttl.constant); err != nil || ttl <= 0 {
			return nil, failure.New(failure.Configuration, "invalid ttl constant '%s'", *t.ttl.constant)
		}
	}
	return t, nil
}

func (t *Template) Operation() sink.Operation {
	return t.operation
}

func (t *Template) Resource() *indexing.Resource {
	return t.resource
}

func (t *Template) Plan() *mapping.Plan {
	return t.plan
}

// Destination resolves a static resource without a document.
func (t *Template) Destination() (indexing.Destination, bool) {
	if !t.resource.Static() {
		return indexing.Destination{}, false
	}
	destination, err := t.resolver.Resolve(document.NewObject())
	if err != nil {
		return indexing.Destination{}, false
	}
	return destination, true
}

// Verify checks a static destination up-front when indices must
// not be created implicitly.
func (t *Template) Verify(
	ctx context.Context, s sink.Sink,
) error {

	if t.autoCreate || !t.resource.Static() {
		return nil
	}
	destination, err := t.resolver.Resolve(document.NewObject())
	if err != nil {
		return err
	}
	return verifyIndex(ctx, s, destination.Index)
}

func verifyIndex(
	ctx context.Context, s sink.Sink, index string,
) error {

	exists, err := s.IndexExists(ctx, index)
	if err != nil {
		return failure.Wrap(failure.TransientRejection, err)
	}
	if !exists {
		return failure.New(
			failure.Configuration, "index '%s' doesn't exist and automatic index creation is disabled", index,
		)
	}
	return nil
}

// Dispatcher turns converted documents into write requests. It
// caches index verifications and must not be shared by workers.
type Dispatcher struct {
	template  *Template
	sink      sink.Sink
	logger    *logging.Logger
	verified  supporting.Once[string]
	sanitized supporting.Once[string]
}

func (t *Template) NewDispatcher(
	s sink.Sink, logger *logging.Logger,
) *Dispatcher {

	return &Dispatcher{
		template:  t,
		sink:      s,
		logger:    logger,
		verified:  supporting.Once[string]{},
		sanitized: supporting.Once[string]{},
	}
}

// Dispatch resolves destination and metadata from the converted
// document and projects its source. Resolution errors are per row,
// configuration errors abort the job.
func (d *Dispatcher) Dispatch(
	ctx context.Context, obj *document.Object,
) (sink.WriteRequest, error) {

	t := d.template
	destination, err := t.resolver.Resolve(obj)
	if err != nil {
		return sink.WriteRequest{}, err
	}
	if destination.Sanitized && d.sanitized.First(destination.Index) {
		d.logger.Warnf("Resolved index name was sanitized to '%s'", destination.Index)
	}

	if !t.autoCreate && !t.resource.Static() && d.verified.First(destination.Index) {
		if err := verifyIndex(ctx, d.sink, destination.Index); err != nil {
			return sink.WriteRequest{}, err
		}
	}

	metadata, err := t.metadata(obj)
	if err != nil {
		return sink.WriteRequest{}, err
	}

	return sink.WriteRequest{
		Operation: t.operation,
		Index:     destination.Index,
		Type:      destination.Type,
		Document: &document.Document{
			Source:   t.plan.Project(obj),
			Metadata: metadata,
		},
	}, nil
}

func (t *Template) metadata(
	obj *document.Object,
) (document.Metadata, error) {

	metadata := document.Metadata{}

	id, present, err := t.id.text(obj)
	if err != nil {
		return metadata, err
	}
	if !present && t.operation.RequiresId() {
		return metadata, failure.New(
			failure.Resolution, "%s requires an id but field '%s' is null", t.operation, t.id.describe(),
		).WithPath(t.id.describe())
	}
	metadata.ID = id

	parent, present, err := t.parent.text(obj)
	if err != nil {
		return metadata, err
	}
	if !present && t.parent.configured() {
		return metadata, failure.New(
			failure.Resolution, "parent field '%s' is null", t.parent.describe(),
		).WithPath(t.parent.describe())
	}
	metadata.Parent = parent

	if metadata.Routing, _, err = t.routing.text(obj); err != nil {
		return metadata, err
	}
	if metadata.Version, _, err = t.version.version(obj); err != nil {
		return metadata, err
	}
	if metadata.TTL, _, err = t.ttl.duration(obj); err != nil {
		return metadata, err
	}
	if metadata.Timestamp, _, err = t.timestamp.timestamp(obj); err != nil {
		return metadata, err
	}
	return metadata, nil
}
