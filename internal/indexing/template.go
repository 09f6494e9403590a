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

	"github.com/noctarius/es-bulk-exporter/internal/temporal"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
)

type segment struct {
	literal string
	field   string
	format  *temporal.Layout
}

func (s segment) placeholder() bool {
	return s.field != ""
}

// Template is a name containing literal text and {field} or
// {field:FORMAT} placeholders.
type Template struct {
	raw      string
	segments []segment
}

func ParseTemplate(
	text string,
) (*Template, error) {

	segments := make([]segment, 0)
	literal := strings.Builder{}
	flush := func() {
		if literal.Len() > 0 {
			segments = append(segments, segment{literal: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '{':
			end := strings.IndexByte(text[i+1:], '}')
			if end == -1 {
				return nil, failure.New(failure.Configuration, "unterminated placeholder in '%s'", text)
			}
			body := text[i+1 : i+1+end]
			if strings.ContainsRune(body, '{') {
				return nil, failure.New(failure.Configuration, "nested placeholder in '%s'", text)
			}
			field, format, hasFormat := strings.Cut(body, ":")
			field = strings.TrimSpace(field)
			if field == "" {
				return nil, failure.New(failure.Configuration, "empty placeholder in '%s'", text)
			}

			s := segment{field: field}
			if hasFormat {
				layout, err := temporal.CompileLayout(strings.TrimSpace(format))
				if err != nil {
					return nil, failure.Wrap(failure.Configuration, err)
				}
				s.format = layout
			}
			flush()
			segments = append(segments, s)
			i += end + 1
		case '}':
			return nil, failure.New(failure.Configuration, "unbalanced '}' in '%s'", text)
		default:
			literal.WriteByte(c)
		}
	}
	flush()

	if len(segments) == 0 {
		return nil, failure.New(failure.Configuration, "empty name")
	}
	return &Template{
		raw:      text,
		segments: segments,
	}, nil
}

func (t *Template) String() string {
	return t.raw
}

// Static returns true if the template contains no placeholders.
func (t *Template) Static() bool {
	for _, s := range t.segments {
		if s.placeholder() {
			return false
		}
	}
	return true
}

// Fields lists the source fields referenced by placeholders.
func (t *Template) Fields() []string {
	fields := make([]string, 0)
	for _, s := range t.segments {
		if s.placeholder() {
			fields = append(fields, s.field)
		}
	}
	return fields
}
