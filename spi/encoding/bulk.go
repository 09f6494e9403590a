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
	"strconv"

	"github.com/go-errors/errors"
	"github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/document"
	"github.com/noctarius/es-bulk-exporter/spi/sink"
)

// BulkEncoder renders write requests as newline delimited action
// and source pairs of the bulk API.
type BulkEncoder struct {
	dialect config.BulkDialect
	encoder *JsonEncoder
}

func NewBulkEncoder(
	dialect config.BulkDialect, encoder *JsonEncoder,
) *BulkEncoder {

	if dialect == "" {
		dialect = config.Modern
	}
	return &BulkEncoder{
		dialect: dialect,
		encoder: encoder,
	}
}

func (b *BulkEncoder) Dialect() config.BulkDialect {
	return b.dialect
}

func (b *BulkEncoder) Encode(
	requests []sink.WriteRequest,
) ([]byte, error) {

	buffer := &bytes.Buffer{}
	for _, request := range requests {
		if err := b.EncodeRequest(buffer, request); err != nil {
			return nil, err
		}
	}
	return buffer.Bytes(), nil
}

// Size returns the number of bytes the request occupies in a bulk
// body.
func (b *BulkEncoder) Size(
	request sink.WriteRequest,
) (int, error) {

	buffer := &bytes.Buffer{}
	if err := b.EncodeRequest(buffer, request); err != nil {
		return 0, err
	}
	return buffer.Len(), nil
}

func (b *BulkEncoder) EncodeRequest(
	buffer *bytes.Buffer, request sink.WriteRequest,
) error {

	action := document.ObjectOf(b.actionName(request.Operation), b.metadata(request))
	if err := b.encoder.AppendLine(buffer, action); err != nil {
		return err
	}

	var body any = request.Document.Source
	switch request.Operation {
	case sink.Update:
		body = document.ObjectOf("doc", request.Document.Source)
	case sink.Upsert:
		body = document.ObjectOf("doc", request.Document.Source, "doc_as_upsert", true)
	}

	return b.encoder.AppendLine(buffer, body)
}

func (b *BulkEncoder) actionName(
	operation sink.Operation,
) string {

	switch operation {
	case sink.Create:
		return "create"
	case sink.Update, sink.Upsert:
		return "update"
	}
	return "index"
}

func (b *BulkEncoder) metadata(
	request sink.WriteRequest,
) *document.Object {

	metadata := request.Document.Metadata
	action := document.ObjectOf("_index", request.Index)
	if b.dialect == config.Legacy {
		if request.Type != "" {
			action.Set("_type", request.Type)
		}
		if metadata.ID != "" {
			action.Set("_id", metadata.ID)
		}
		if metadata.Parent != "" {
			action.Set("_parent", metadata.Parent)
		}
		if metadata.Routing != "" {
			action.Set("_routing", metadata.Routing)
		}
		if metadata.Version != 0 {
			action.Set("_version", metadata.Version)
			action.Set("_version_type", "external")
		}
		if metadata.TTL > 0 {
			action.Set("_ttl", strconv.FormatInt(metadata.TTL.Milliseconds(), 10)+"ms")
		}
		if metadata.Timestamp != "" {
			action.Set("_timestamp", metadata.Timestamp)
		}
		return action
	}

	if metadata.ID != "" {
		action.Set("_id", metadata.ID)
	}
	// parent documents live on the same shard, explicit routing wins
	if routing := metadata.Routing; routing != "" {
		action.Set("routing", routing)
	} else if metadata.Parent != "" {
		action.Set("routing", metadata.Parent)
	}
	if metadata.Version != 0 {
		action.Set("version", metadata.Version)
		action.Set("version_type", "external")
	}
	return action
}

type bulkError struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type bulkItem struct {
	Id     string     `json:"_id"`
	Status int        `json:"status"`
	Error  *bulkError `json:"error"`
}

type bulkResponse struct {
	Errors bool                  `json:"errors"`
	Items  []map[string]bulkItem `json:"items"`
}

// DecodeBulkResponse reads a bulk API response body. The number of
// items must match the number of requests sent.
func DecodeBulkResponse(
	decoder *JsonDecoder, data []byte, expected int,
) (*sink.BulkResponse, error) {

	response := bulkResponse{}
	if err := decoder.Unmarshal(data, &response); err != nil {
		return nil, errors.Wrap(err, 0)
	}
	if len(response.Items) != expected {
		return nil, errors.Errorf("bulk response carries %d items, expected %d", len(response.Items), expected)
	}

	items := make([]sink.ItemResult, 0, len(response.Items))
	for _, entry := range response.Items {
		for _, item := range entry {
			result := sink.ItemResult{
				Status: item.Status,
				Id:     item.Id,
			}
			if item.Error != nil {
				result.ErrorType = item.Error.Type
				result.Reason = item.Error.Reason
			}
			items = append(items, result)
		}
	}
	return &sink.BulkResponse{Items: items}, nil
}

// DecodeMappingResponse reads a get-mapping response and returns the
// properties of the named mapping. Responses with and without a type
// level are both understood.
func DecodeMappingResponse(
	decoder *JsonDecoder, data []byte, index, name string,
) (document.Mapping, error) {

	response := make(map[string]struct {
		Mappings map[string]any `json:"mappings"`
	})
	if err := decoder.Unmarshal(data, &response); err != nil {
		return nil, errors.Wrap(err, 0)
	}

	entry, present := response[index]
	if !present {
		return nil, errors.Errorf("mapping response doesn't contain index '%s'", index)
	}

	if properties, ok := entry.Mappings["properties"].(map[string]any); ok {
		return document.ParseMapping(properties), nil
	}
	if typed, ok := entry.Mappings[name].(map[string]any); ok {
		if properties, ok := typed["properties"].(map[string]any); ok {
			return document.ParseMapping(properties), nil
		}
	}
	return document.Mapping{}, nil
}
