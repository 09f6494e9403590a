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

package encoding

import (
	"bytes"

	"github.com/go-errors/errors"
	"github.com/goccy/go-json"
	"github.com/noctarius/es-bulk-exporter/spi/config"
)

// JsonEncoder renders documents and letters. With custom
// reflection HTML characters are not escaped, bulk bodies carry
// source values verbatim.
type JsonEncoder struct {
	marshal func(value any) ([]byte, error)
}

func NewJsonEncoderWithConfig(c *config.Config) *JsonEncoder {
	return NewJsonEncoder(config.GetOrDefault(c, config.PropertyEncodingCustomReflection, true))
}

func NewJsonEncoder(customReflection bool) *JsonEncoder {
	if customReflection {
		return &JsonEncoder{
			marshal: func(value any) ([]byte, error) {
				return json.MarshalWithOption(value, json.DisableHTMLEscape())
			},
		}
	}
	return &JsonEncoder{marshal: json.Marshal}
}

func (j *JsonEncoder) Marshal(value any) ([]byte, error) {
	return j.marshal(value)
}

// AppendLine writes value and the newline terminating each entry of
// a newline delimited body.
func (j *JsonEncoder) AppendLine(
	buffer *bytes.Buffer, value any,
) error {

	data, err := j.marshal(value)
	if err != nil {
		return errors.Wrap(err, 0)
	}
	buffer.Write(data)
	buffer.WriteByte('\n')
	return nil
}

type JsonDecoder struct {
	unmarshal func(data []byte, v any) error
}

func NewJsonDecoderWithConfig(c *config.Config) *JsonDecoder {
	return NewJsonDecoder(config.GetOrDefault(c, config.PropertyEncodingCustomReflection, true))
}

func NewJsonDecoder(customReflection bool) *JsonDecoder {
	if customReflection {
		return &JsonDecoder{
			unmarshal: func(data []byte, v any) error {
				return json.UnmarshalNoEscape(data, v)
			},
		}
	}
	return &JsonDecoder{unmarshal: json.Unmarshal}
}

func (j *JsonDecoder) Unmarshal(data []byte, v any) error {
	return j.unmarshal(data, v)
}

// UnmarshalNumbers decodes a single JSON value keeping numbers as
// json.Number, large integers survive without float rounding.
// Trailing content after the value is an error.
func (j *JsonDecoder) UnmarshalNumbers(
	data []byte, v any,
) error {

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(v); err != nil {
		return err
	}
	if decoder.More() {
		return errors.Errorf("unexpected content after the JSON value at offset %d", decoder.InputOffset())
	}
	return nil
}
