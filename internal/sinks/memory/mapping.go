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
	"github.com/noctarius/es-bulk-exporter/internal/temporal"
	"github.com/noctarius/es-bulk-exporter/spi/document"
)

// inferMapping derives the dynamic mapping of a document source.
// Existing properties steer the detection of date strings.
func inferMapping(
	source *document.Object, existing document.Mapping, dateDetection bool,
) document.Mapping {

	m := make(document.Mapping)
	for _, key := range source.Keys() {
		value, _ := source.Get(key)
		if property := inferProperty(value, existing[key], dateDetection); property != nil {
			m[key] = property
		}
	}
	return m
}

func inferProperty(
	value any, existing *document.Property, dateDetection bool,
) *document.Property {

	switch v := value.(type) {
	case nil:
		return nil
	case bool:
		return document.Leaf(document.BooleanType)
	case int, int32, int64:
		return document.Leaf(document.LongType)
	case float32, float64:
		return document.Leaf(document.DoubleType)
	case document.Date:
		return document.Leaf(document.DateType)
	case string:
		if existing != nil {
			if existing.Type == document.DateType {
				if _, ok := temporal.Parse(v); ok {
					return document.Leaf(document.DateType)
				}
			}
			return document.Leaf(document.StringType)
		}
		if dateDetection && temporal.Detectable(v) {
			return document.Leaf(document.DateType)
		}
		return document.Leaf(document.StringType)
	case *document.Object:
		var properties document.Mapping
		if existing != nil && existing.Type == document.ObjectType {
			properties = existing.Properties
		}
		return document.Nested(inferMapping(v, properties, dateDetection))
	case []any:
		var folded *document.Property
		for _, element := range v {
			property := inferProperty(element, existing, dateDetection)
			if property == nil {
				continue
			}
			if folded == nil {
				folded = property
				continue
			}
			merged, err := document.Mapping{"e": folded}.Merge(document.Mapping{"e": property})
			if err != nil {
				// mixed element types are reported by the regular merge
				return property
			}
			folded = merged["e"]
		}
		return folded
	default:
		return document.Leaf(document.StringType)
	}
}
