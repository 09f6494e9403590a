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

package document

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Object is an insertion-ordered document field map. Values are
// int64, float64, bool, string, Date, *Object, []any or nil.
type Object struct {
	keys   []string
	values map[string]any
}

func NewObject() *Object {
	return &Object{
		keys:   make([]string, 0),
		values: make(map[string]any),
	}
}

// ObjectOf builds an object from alternating key and value
// arguments, mostly useful in tests.
func ObjectOf(
	keyValues ...any,
) *Object {

	o := NewObject()
	for i := 0; i+1 < len(keyValues); i += 2 {
		o.Set(keyValues[i].(string), keyValues[i+1])
	}
	return o
}

func (o *Object) Set(
	key string, value any,
) {

	if _, present := o.values[key]; !present {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

func (o *Object) Get(
	key string,
) (any, bool) {

	value, present := o.values[key]
	return value, present
}

func (o *Object) Delete(
	key string,
) {

	if _, present := o.values[key]; !present {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
}

func (o *Object) Keys() []string {
	return o.keys
}

func (o *Object) Len() int {
	return len(o.keys)
}

// Lookup descends through nested objects along path.
func (o *Object) Lookup(
	path []string,
) (any, bool) {

	var current any = o
	for _, segment := range path {
		obj, ok := current.(*Object)
		if !ok {
			return nil, false
		}
		if current, ok = obj.Get(segment); !ok {
			return nil, false
		}
	}
	return current, true
}

// DeletePath removes the value at path. Arrays of objects are
// traversed so that the path applies to each element.
func (o *Object) DeletePath(
	path []string,
) {

	if len(path) == 0 {
		return
	}
	if len(path) == 1 {
		o.Delete(path[0])
		return
	}
	value, ok := o.Get(path[0])
	if !ok {
		return
	}
	deleteNested(value, path[1:])
}

func deleteNested(
	value any, path []string,
) {

	switch v := value.(type) {
	case *Object:
		v.DeletePath(path)
	case []any:
		for _, element := range v {
			deleteNested(element, path)
		}
	}
}

// Clone returns a deep copy.
func (o *Object) Clone() *Object {
	clone := NewObject()
	for _, key := range o.keys {
		clone.Set(key, cloneValue(o.values[key]))
	}
	return clone
}

func cloneValue(
	value any,
) any {

	switch v := value.(type) {
	case *Object:
		return v.Clone()
	case []any:
		clone := make([]any, len(v))
		for i, element := range v {
			clone[i] = cloneValue(element)
		}
		return clone
	default:
		return v
	}
}

// Merge applies other on top of o. Nested objects are merged
// recursively, all other values are replaced.
func (o *Object) Merge(
	other *Object,
) {

	for _, key := range other.keys {
		incoming := other.values[key]
		if existing, ok := o.values[key].(*Object); ok {
			if nested, ok := incoming.(*Object); ok {
				existing.Merge(nested)
				continue
			}
		}
		o.Set(key, cloneValue(incoming))
	}
}

// ToMap converts the object into plain Go maps and slices.
func (o *Object) ToMap() map[string]any {
	result := make(map[string]any, len(o.keys))
	for _, key := range o.keys {
		result[key] = toPlain(o.values[key])
	}
	return result
}

func toPlain(
	value any,
) any {

	switch v := value.(type) {
	case *Object:
		return v.ToMap()
	case []any:
		plain := make([]any, len(v))
		for i, element := range v {
			plain[i] = toPlain(element)
		}
		return plain
	case Date:
		return v.String()
	default:
		return v
	}
}

func (o *Object) MarshalJSON() ([]byte, error) {
	buffer := &bytes.Buffer{}
	buffer.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buffer.WriteByte(',')
		}
		k, err := json.MarshalWithOption(key, json.DisableHTMLEscape())
		if err != nil {
			return nil, err
		}
		buffer.Write(k)
		buffer.WriteByte(':')
		v, err := json.MarshalWithOption(o.values[key], json.DisableHTMLEscape())
		if err != nil {
			return nil, err
		}
		buffer.Write(v)
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}
