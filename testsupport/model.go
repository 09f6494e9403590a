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

package testsupport

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/go-errors/errors"
	"github.com/tidwall/gjson"
)

// BulkEntry is one action of a bulk request body.
type BulkEntry struct {
	Action  string
	Index   string
	Type    string
	Id      string
	Parent  string
	Routing string
	Source  gjson.Result
}

// ParseBulkBody splits a newline delimited bulk body into its
// action and source pairs.
func ParseBulkBody(
	body []byte,
) ([]BulkEntry, error) {

	lines := make([]string, 0)
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, 0)
	}
	if len(lines)%2 != 0 {
		return nil, errors.Errorf("bulk body has %d lines, expected action and source pairs", len(lines))
	}

	entries := make([]BulkEntry, 0, len(lines)/2)
	for i := 0; i < len(lines); i += 2 {
		if !gjson.Valid(lines[i]) || !gjson.Valid(lines[i+1]) {
			return nil, errors.Errorf("invalid json in bulk entry %d", i/2)
		}
		var entry BulkEntry
		gjson.Parse(lines[i]).ForEach(func(key, value gjson.Result) bool {
			entry.Action = key.String()
			entry.Index = value.Get("_index").String()
			entry.Type = value.Get("_type").String()
			entry.Id = value.Get("_id").String()
			entry.Parent = value.Get("_parent").String()
			entry.Routing = value.Get("routing").String()
			if !value.Get("routing").Exists() {
				entry.Routing = value.Get("_routing").String()
			}
			return false
		})
		entry.Source = gjson.Parse(lines[i+1])
		if entry.Action == "update" {
			entry.Source = entry.Source.Get("doc")
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
