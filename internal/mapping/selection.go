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
)

type pattern struct {
	path     string
	children bool
}

// matches returns true if the pattern selects path or one of
// its ancestors.
func (p pattern) matches(
	path string,
) bool {

	if p.children {
		return strings.HasPrefix(path, p.path+".")
	}
	return path == p.path || strings.HasPrefix(path, p.path+".")
}

// leadsTo returns true if path is an ancestor of the selected path.
func (p pattern) leadsTo(
	path string,
) bool {

	return strings.HasPrefix(p.path, path+".") || (p.children && p.path == path)
}

type selection struct {
	includes []pattern
	excludes []pattern
}

func newSelection(
	paths []sourcePath, includes, excludes []string,
) (*selection, error) {

	compile := func(entries []string) ([]pattern, error) {
		patterns := make([]pattern, 0, len(entries))
		for _, entry := range entries {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			p := pattern{path: entry}
			if strings.HasSuffix(entry, ".*") {
				p = pattern{path: strings.TrimSuffix(entry, ".*"), children: true}
			}
			known := false
			for _, candidate := range paths {
				if candidate.path == p.path {
					known = true
					break
				}
			}
			if !known {
				return nil, failure.New(failure.Configuration, "field '%s' doesn't exist", p.path)
			}
			patterns = append(patterns, p)
		}
		return patterns, nil
	}

	includePatterns, err := compile(includes)
	if err != nil {
		return nil, err
	}
	excludePatterns, err := compile(excludes)
	if err != nil {
		return nil, err
	}
	return &selection{
		includes: includePatterns,
		excludes: excludePatterns,
	}, nil
}

func (s *selection) keeps(
	path string,
) bool {

	for _, exclude := range s.excludes {
		if exclude.matches(path) {
			return false
		}
	}
	if len(s.includes) == 0 {
		return true
	}
	for _, include := range s.includes {
		if include.matches(path) || include.leadsTo(path) {
			return true
		}
	}
	return false
}
