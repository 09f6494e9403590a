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
	"strconv"
	"time"

	"github.com/go-errors/errors"
	"github.com/goccy/go-json"
)

// DateLayout is the lexical form of temporal document values.
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

// Date is a temporal document value. It is serialized in its
// ISO-8601 form so that the sink detects it as a date.
type Date struct {
	time.Time
}

func NewDate(
	t time.Time,
) Date {

	return Date{Time: t}
}

func (d Date) String() string {
	return d.Time.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Metadata carries the per-document write attributes which
// are not part of the document source.
type Metadata struct {
	ID        string
	Parent    string
	Routing   string
	Timestamp string
	Version   int64
	TTL       time.Duration
}

type Document struct {
	Source   *Object
	Metadata Metadata
}

// Natural renders a scalar document value in its natural string
// form. Null, object and array values have no such form.
func Natural(
	value any,
) (string, error) {

	switch v := value.(type) {
	case string:
		return v, nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int:
		return strconv.Itoa(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case Date:
		return v.String(), nil
	case nil:
		return "", errors.Errorf("value is null")
	case *Object:
		return "", errors.Errorf("object values have no string form")
	case []any:
		return "", errors.Errorf("array values have no string form")
	default:
		return "", errors.Errorf("unsupported document value %T", value)
	}
}
