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

package coercion

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-errors/errors"
	"github.com/goccy/go-json"
	"github.com/noctarius/es-bulk-exporter/internal/temporal"
	"github.com/noctarius/es-bulk-exporter/spi/document"
	"github.com/noctarius/es-bulk-exporter/spi/schema"
)

var integerBits = map[schema.Kind]uint{
	schema.TinyInt:  8,
	schema.SmallInt: 16,
	schema.Int:      32,
	schema.BigInt:   64,
}

// maxExactFloat is the largest integer a float64 represents exactly.
const maxExactFloat = 1 << 53

func toInteger(
	value any, kind schema.Kind,
) (any, error) {

	var v int64
	switch t := value.(type) {
	case int:
		v = int64(t)
	case int8:
		v = int64(t)
	case int16:
		v = int64(t)
	case int32:
		v = int64(t)
	case int64:
		v = t
	case uint8:
		v = int64(t)
	case uint16:
		v = int64(t)
	case uint32:
		v = int64(t)
	case uint:
		if uint64(t) > math.MaxInt64 {
			return nil, errors.Errorf("%d overflows %s", t, kind)
		}
		v = int64(t)
	case uint64:
		if t > math.MaxInt64 {
			return nil, errors.Errorf("%d overflows %s", t, kind)
		}
		v = int64(t)
	case float32:
		i, err := integralFloat(float64(t), kind)
		if err != nil {
			return nil, err
		}
		v = i
	case float64:
		i, err := integralFloat(t, kind)
		if err != nil {
			return nil, err
		}
		v = i
	case json.Number:
		i, err := parseInteger(string(t), kind)
		if err != nil {
			return nil, err
		}
		v = i
	case string:
		i, err := parseInteger(t, kind)
		if err != nil {
			return nil, err
		}
		v = i
	default:
		return nil, errors.Errorf("cannot convert %T to %s", value, kind)
	}

	bits := integerBits[kind]
	low, high := int64(math.MinInt64), int64(math.MaxInt64)
	if bits < 64 {
		low, high = -(1 << (bits - 1)), (1<<(bits-1))-1
	}
	if v < low || v > high {
		return nil, errors.Errorf("%d overflows %s", v, kind)
	}
	return v, nil
}

func integralFloat(
	f float64, kind schema.Kind,
) (int64, error) {

	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return 0, errors.Errorf("%v is not an integral value for %s", f, kind)
	}
	// beyond 2^53 the float may already be a rounded neighbour
	if f > maxExactFloat || f < -maxExactFloat {
		return 0, errors.Errorf("%v is not exact enough for %s", f, kind)
	}
	return int64(f), nil
}

func parseInteger(
	text string, kind schema.Kind,
) (int64, error) {

	text = strings.TrimSpace(text)
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, errors.Errorf("'%s' is not a valid %s", text, kind)
	}
	if f > -maxExactFloat && f < maxExactFloat {
		return integralFloat(f, kind)
	}

	// large decimals like 9007199254740993.0 are evaluated exactly
	r, ok := new(big.Rat).SetString(text)
	if !ok || strings.ContainsRune(text, '/') {
		return 0, errors.Errorf("'%s' is not a valid %s", text, kind)
	}
	if !r.IsInt() {
		return 0, errors.Errorf("'%s' is not an integral value for %s", text, kind)
	}
	if !r.Num().IsInt64() {
		return 0, errors.Errorf("'%s' overflows %s", text, kind)
	}
	return r.Num().Int64(), nil
}

func toFloat(
	value any, kind schema.Kind,
) (any, error) {

	var f float64
	switch t := value.(type) {
	case float32:
		f = float64(t)
	case float64:
		f = t
	case int, int8, int16, int32, int64, uint8, uint16, uint32, uint, uint64:
		i, err := toInteger(value, schema.BigInt)
		if err != nil {
			return nil, err
		}
		v := i.(int64)
		if v > maxExactFloat || v < -maxExactFloat {
			return nil, errors.Errorf("%d cannot be represented exactly as %s", v, kind)
		}
		f = float64(v)
	case json.Number:
		parsed, err := strconv.ParseFloat(string(t), 64)
		if err != nil {
			return nil, errors.Errorf("'%s' is not a valid %s", t, kind)
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil, errors.Errorf("'%s' is not a valid %s", t, kind)
		}
		f = parsed
	default:
		return nil, errors.Errorf("cannot convert %T to %s", value, kind)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errors.Errorf("%v has no document representation", f)
	}
	if kind == schema.Float && math.Abs(f) > math.MaxFloat32 {
		return nil, errors.Errorf("%v overflows %s", f, kind)
	}
	return f, nil
}

func toBoolean(
	value any,
) (any, error) {

	switch t := value.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return nil, errors.Errorf("'%s' is not a valid BOOLEAN", t)
		}
		return b, nil
	default:
		return nil, errors.Errorf("cannot convert %T to BOOLEAN", value)
	}
}

func toText(
	value any, primitive *schema.Primitive,
) (any, error) {

	var s string
	switch t := value.(type) {
	case string:
		s = t
	case []byte:
		s = string(t)
	case json.Number:
		s = string(t)
	case bool:
		s = strconv.FormatBool(t)
	case time.Time:
		s = document.NewDate(t).String()
	case document.Date:
		s = t.String()
	case int, int8, int16, int32, int64, uint8, uint16, uint32, uint, uint64:
		i, err := toInteger(value, schema.BigInt)
		if err != nil {
			return nil, err
		}
		s = strconv.FormatInt(i.(int64), 10)
	case float32:
		s = strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return nil, errors.Errorf("cannot convert %T to %s", value, primitive)
	}

	switch primitive.Kind {
	case schema.Char:
		s = strings.TrimRight(s, " ")
		fallthrough
	case schema.Varchar:
		if length := utf8.RuneCountInString(s); length > primitive.Length {
			return nil, errors.Errorf("value of %d characters exceeds %s", length, primitive)
		}
	}
	return s, nil
}

func toTimestamp(
	value any,
) (any, error) {

	switch t := value.(type) {
	case time.Time:
		return document.NewDate(t), nil
	case document.Date:
		return t, nil
	case string:
		if parsed, ok := temporal.Parse(t); ok {
			return document.NewDate(parsed), nil
		}
		return nil, errors.Errorf("'%s' is not an ISO-8601 compatible timestamp", t)
	case []byte:
		return toTimestamp(string(t))
	default:
		return nil, errors.Errorf("cannot convert %T to TIMESTAMP", value)
	}
}
