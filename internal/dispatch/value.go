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
	"strconv"
	"strings"
	"time"

	"github.com/noctarius/es-bulk-exporter/internal/mapping"
	"github.com/noctarius/es-bulk-exporter/internal/temporal"
	"github.com/noctarius/es-bulk-exporter/spi/document"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
)

// value is a metadata source, either a constant written as <value>
// or <"value">, or a field of the converted document.
type value struct {
	name     string
	constant *string
	accessor *mapping.Accessor
}

func (v value) configured() bool {
	return v.constant != nil || v.accessor != nil
}

func (v value) describe() string {
	if v.constant != nil {
		return "<" + *v.constant + ">"
	}
	if v.accessor != nil {
		return v.accessor.Source()
	}
	return ""
}

func parseValue(
	name, setting string, plan *mapping.Plan,
) (value, error) {

	setting = strings.TrimSpace(setting)
	if setting == "" {
		return value{name: name}, nil
	}

	if strings.HasPrefix(setting, "<") && strings.HasSuffix(setting, ">") {
		constant := strings.TrimSpace(setting[1 : len(setting)-1])
		if len(constant) >= 2 && strings.HasPrefix(constant, `"`) && strings.HasSuffix(constant, `"`) {
			constant = constant[1 : len(constant)-1]
		}
		if constant == "" {
			return value{}, failure.New(failure.Configuration, "%s constant must not be empty", name)
		}
		return value{name: name, constant: &constant}, nil
	}

	accessor, err := plan.Accessor(setting)
	if err != nil {
		return value{}, failure.New(failure.Configuration, "%s field '%s' doesn't exist", name, setting)
	}
	return value{name: name, accessor: &accessor}, nil
}

// raw returns the constant or the field value, nil if unset.
func (v value) raw(
	obj *document.Object,
) any {

	if v.constant != nil {
		return *v.constant
	}
	if v.accessor != nil {
		if val, present := v.accessor.Get(obj); present {
			return val
		}
	}
	return nil
}

func (v value) text(
	obj *document.Object,
) (string, bool, error) {

	raw := v.raw(obj)
	if raw == nil {
		return "", false, nil
	}
	text, err := document.Natural(raw)
	if err != nil {
		return "", false, failure.Wrap(failure.Resolution, err).WithPath(v.describe())
	}
	return text, true, nil
}

func (v value) version(
	obj *document.Object,
) (int64, bool, error) {

	switch raw := v.raw(obj).(type) {
	case nil:
		return 0, false, nil
	case int64:
		return raw, true, nil
	case float64:
		if raw == float64(int64(raw)) {
			return int64(raw), true, nil
		}
	case string:
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return i, true, nil
		}
	}
	return 0, false, failure.New(
		failure.Resolution, "%s value '%v' isn't a whole number", v.name, v.raw(obj),
	).WithPath(v.describe())
}

func (v value) duration(
	obj *document.Object,
) (time.Duration, bool, error) {

	var ttl time.Duration
	var err error
	switch raw := v.raw(obj).(type) {
	case nil:
		return 0, false, nil
	case int64:
		ttl = time.Duration(raw) * time.Millisecond
	case string:
		ttl, err = ParseTTL(raw)
	default:
		err = failure.New(failure.Resolution, "%T isn't a duration", raw)
	}
	if err == nil && ttl <= 0 {
		err = failure.New(failure.Resolution, "%s must be positive", v.name)
	}
	if err != nil {
		return 0, false, failure.Wrap(failure.Resolution, err).WithPath(v.describe())
	}
	return ttl, true, nil
}

func (v value) timestamp(
	obj *document.Object,
) (string, bool, error) {

	switch raw := v.raw(obj).(type) {
	case nil:
		return "", false, nil
	case document.Date:
		return raw.String(), true, nil
	case int64:
		return document.NewDate(time.UnixMilli(raw).UTC()).String(), true, nil
	case string:
		if t, ok := temporal.Parse(raw); ok {
			return document.NewDate(t).String(), true, nil
		}
	}
	return "", false, failure.New(
		failure.Resolution, "%s value '%v' isn't temporal", v.name, v.raw(obj),
	).WithPath(v.describe())
}

// ParseTTL reads a duration as whole milliseconds or in Go duration
// syntax, additionally accepting days (d) and weeks (w).
func ParseTTL(
	text string,
) (time.Duration, error) {

	text = strings.TrimSpace(text)
	if ms, err := strconv.ParseInt(text, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}

	for suffix, unit := range map[string]time.Duration{"d": 24 * time.Hour, "w": 7 * 24 * time.Hour} {
		if number, found := strings.CutSuffix(text, suffix); found {
			n, err := strconv.ParseFloat(number, 64)
			if err != nil {
				return 0, failure.New(failure.Resolution, "invalid duration '%s'", text)
			}
			return time.Duration(n * float64(unit)), nil
		}
	}

	d, err := time.ParseDuration(text)
	if err != nil {
		return 0, failure.New(failure.Resolution, "invalid duration '%s'", text)
	}
	return d, nil
}
