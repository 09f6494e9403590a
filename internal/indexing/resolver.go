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

package indexing

import (
	"strings"

	"github.com/noctarius/es-bulk-exporter/internal/mapping"
	"github.com/noctarius/es-bulk-exporter/internal/temporal"
	"github.com/noctarius/es-bulk-exporter/spi/document"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
)

// Resource is the configured destination, an index template with
// an optional type template separated by '/'.
type Resource struct {
	Index *Template
	Type  *Template
}

func ParseResource(
	resource string,
) (*Resource, error) {

	resource = strings.TrimSpace(resource)
	if resource == "" {
		return nil, failure.New(failure.Configuration, "resource must not be empty")
	}

	parts := strings.Split(resource, "/")
	if len(parts) > 2 {
		return nil, failure.New(failure.Configuration, "resource '%s' must be 'index' or 'index/type'", resource)
	}

	index, err := ParseTemplate(parts[0])
	if err != nil {
		return nil, err
	}
	r := &Resource{Index: index}
	if len(parts) == 2 {
		if r.Type, err = ParseTemplate(parts[1]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Resource) Static() bool {
	return r.Index.Static() && (r.Type == nil || r.Type.Static())
}

func (r *Resource) String() string {
	if r.Type == nil {
		return r.Index.String()
	}
	return r.Index.String() + "/" + r.Type.String()
}

// Destination is a resolved index and optional type.
type Destination struct {
	Index string
	Type  string
	// Sanitized is set if the rendered index name contained
	// characters which had to be replaced.
	Sanitized bool
}

// MappingName is the name the store reports the mapping under.
func (d Destination) MappingName() string {
	if d.Type != "" {
		return d.Type
	}
	return d.Index
}

func (d Destination) String() string {
	if d.Type == "" {
		return d.Index
	}
	return d.Index + "/" + d.Type
}

type boundSegment struct {
	segment
	accessor mapping.Accessor
}

type boundTemplate []boundSegment

// Resolver computes the destination of each document. It is
// immutable and may be shared between workers.
type Resolver struct {
	index boundTemplate
	typ   boundTemplate
}

// Bind validates the placeholder fields against the plan.
func (r *Resource) Bind(
	plan *mapping.Plan,
) (*Resolver, error) {

	index, err := bind(r.Index, plan)
	if err != nil {
		return nil, err
	}
	resolver := &Resolver{index: index}
	if r.Type != nil {
		if resolver.typ, err = bind(r.Type, plan); err != nil {
			return nil, err
		}
	}
	return resolver, nil
}

func bind(
	t *Template, plan *mapping.Plan,
) (boundTemplate, error) {

	bound := make(boundTemplate, 0, len(t.segments))
	for _, s := range t.segments {
		b := boundSegment{segment: s}
		if s.placeholder() {
			accessor, err := plan.Accessor(s.field)
			if err != nil {
				return nil, failure.New(
					failure.Configuration, "placeholder '{%s}' in '%s' references an unknown field", s.field, t.raw,
				)
			}
			b.accessor = accessor
		}
		bound = append(bound, b)
	}
	return bound, nil
}

func (r *Resolver) Resolve(
	obj *document.Object,
) (Destination, error) {

	index, err := r.index.render(obj)
	if err != nil {
		return Destination{}, err
	}
	sanitized, changed := SanitizeIndexName(index)
	if sanitized == "" {
		return Destination{}, failure.New(failure.Resolution, "resolved index name is empty")
	}

	destination := Destination{Index: sanitized, Sanitized: changed}
	if r.typ != nil {
		if destination.Type, err = r.typ.render(obj); err != nil {
			return Destination{}, err
		}
		if destination.Type == "" {
			return Destination{}, failure.New(failure.Resolution, "resolved type name is empty")
		}
	}
	return destination, nil
}

func (t boundTemplate) render(
	obj *document.Object,
) (string, error) {

	builder := strings.Builder{}
	for _, s := range t {
		if !s.placeholder() {
			builder.WriteString(s.literal)
			continue
		}

		value, present := s.accessor.Get(obj)
		if !present || value == nil {
			return "", failure.New(failure.Resolution, "field '%s' is null", s.field).WithPath(s.field)
		}

		if s.format == nil {
			text, err := document.Natural(value)
			if err != nil {
				return "", failure.Wrap(failure.Resolution, err).WithPath(s.field)
			}
			builder.WriteString(text)
			continue
		}

		switch v := value.(type) {
		case document.Date:
			builder.WriteString(s.format.Format(v.Time))
		case string:
			parsed, ok := temporal.Parse(v)
			if !ok {
				return "", failure.New(
					failure.Resolution, "value '%s' isn't temporal, cannot apply format '%s'", v, s.format,
				).WithPath(s.field)
			}
			builder.WriteString(s.format.Format(parsed))
		default:
			return "", failure.New(
				failure.Resolution, "%T value isn't temporal, cannot apply format '%s'", value, s.format,
			).WithPath(s.field)
		}
	}
	return builder.String(), nil
}
