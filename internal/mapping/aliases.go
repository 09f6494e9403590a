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

package mapping

import (
	"strings"

	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/noctarius/es-bulk-exporter/spi/schema"
)

// Alias renames the field at a source path in the destination
// document. Source is either a dotted path or a bare field name.
type Alias struct {
	Source      string
	Destination string
}

type Aliases []Alias

// ParseAliases parses an alias table of the form
// "source:destination, other.path:name".
func ParseAliases(
	table string,
) (Aliases, error) {

	aliases := make(Aliases, 0)
	for _, entry := range strings.Split(table, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		source, destination, found := strings.Cut(entry, ":")
		source = strings.TrimSpace(source)
		destination = strings.TrimSpace(destination)
		if !found || source == "" || destination == "" {
			return nil, failure.New(failure.Configuration, "invalid alias entry '%s', expected 'source:destination'", entry)
		}
		if strings.Contains(destination, ".") {
			return nil, failure.New(failure.Configuration, "alias destination '%s' must not contain '.'", destination)
		}
		aliases = append(aliases, Alias{Source: source, Destination: destination})
	}
	return aliases, nil
}

type sourcePath struct {
	path  string
	field schema.Field
	depth int
}

// resolve binds every alias to exactly one source path. Unmatched
// and ambiguous entries are configuration errors.
func (a Aliases) resolve(
	paths []sourcePath,
) (map[string]string, error) {

	resolved := make(map[string]string, len(a))
	for _, alias := range a {
		path, err := matchAlias(alias.Source, paths)
		if err != nil {
			return nil, err
		}
		if _, present := resolved[path]; present {
			return nil, failure.New(failure.Configuration, "field '%s' is aliased more than once", path)
		}
		resolved[path] = alias.Destination
	}
	return resolved, nil
}

func matchAlias(
	source string, paths []sourcePath,
) (string, error) {

	matchers := []func(candidate sourcePath) bool{
		func(c sourcePath) bool { return c.path == source },
		func(c sourcePath) bool { return strings.EqualFold(c.path, source) },
	}
	if !strings.Contains(source, ".") {
		// Bare names fall back to nested fields of that name.
		matchers = append(matchers,
			func(c sourcePath) bool { return c.field.Name == source },
			func(c sourcePath) bool { return strings.EqualFold(c.field.Name, source) },
		)
	}

	for _, matcher := range matchers {
		matches := make([]string, 0)
		for _, candidate := range paths {
			if matcher(candidate) {
				matches = append(matches, candidate.path)
			}
		}
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			return "", failure.New(
				failure.Configuration, "alias '%s' is ambiguous, matches %s", source, strings.Join(matches, ", "),
			)
		}
	}
	return "", failure.New(failure.Configuration, "alias '%s' doesn't match any field", source)
}
