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

package sink

import (
	"context"
	"strings"

	"github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/document"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
)

type Provider = func(config *config.Config) (Sink, error)

// Operation is the write semantics of a single request.
type Operation string

const (
	Index  Operation = "index"
	Create Operation = "create"
	Update Operation = "update"
	Upsert Operation = "upsert"
)

func ParseOperation(
	value string,
) (Operation, error) {

	switch op := Operation(strings.ToLower(strings.TrimSpace(value))); op {
	case "":
		return Index, nil
	case Index, Create, Update, Upsert:
		return op, nil
	}
	return "", failure.New(failure.Configuration, "unknown write operation '%s'", value)
}

// RequiresId returns true for operations addressing an existing
// document.
func (o Operation) RequiresId() bool {
	return o == Update || o == Upsert
}

type WriteRequest struct {
	Operation Operation
	Index     string
	Type      string
	Document  *document.Document
}

const (
	ErrorTypeVersionConflict   = "version_conflict_engine_exception"
	ErrorTypeDocumentMissing   = "document_missing_exception"
	ErrorTypeMapperParsing     = "mapper_parsing_exception"
	ErrorTypeRejectedExecution = "es_rejected_execution_exception"
	ErrorTypeIndexNotFound     = "index_not_found_exception"
)

// ItemResult is the acknowledgement of a single WriteRequest.
type ItemResult struct {
	Status    int
	ErrorType string
	Reason    string
	Id        string
}

func (r ItemResult) Failed() bool {
	return r.Status < 200 || r.Status > 299
}

// Transient returns true for failures that may succeed when retried,
// like capacity rejections or timeouts.
func (r ItemResult) Transient() bool {
	switch r.Status {
	case 429, 502, 503, 504:
		return true
	}
	return r.ErrorType == ErrorTypeRejectedExecution
}

// BulkResponse carries one ItemResult per request, in request order.
type BulkResponse struct {
	Items []ItemResult
}

func (r *BulkResponse) Failures() int {
	failures := 0
	for _, item := range r.Items {
		if item.Failed() {
			failures++
		}
	}
	return failures
}

// Sink is the bulk-write endpoint of the document store. Bulk must
// be safe for concurrent use by multiple workers. A returned error
// fails the whole batch; per-request failures are reported through
// the BulkResponse.
type Sink interface {
	Start() error
	Stop() error
	Bulk(
		ctx context.Context, requests []WriteRequest,
	) (*BulkResponse, error)
	IndexExists(
		ctx context.Context, index string,
	) (bool, error)
}

// MappingInspector is implemented by sinks able to report the
// mapping the document store derived for a destination.
type MappingInspector interface {
	Mapping(
		ctx context.Context, index, name string,
	) (document.Mapping, error)
}

type BulkFunc func(ctx context.Context, requests []WriteRequest) (*BulkResponse, error)

func (bf BulkFunc) Start() error {
	return nil
}

func (bf BulkFunc) Stop() error {
	return nil
}

func (bf BulkFunc) Bulk(
	ctx context.Context, requests []WriteRequest,
) (*BulkResponse, error) {

	return bf(ctx, requests)
}

func (bf BulkFunc) IndexExists(
	_ context.Context, _ string,
) (bool, error) {

	return true, nil
}

// Rejection classifies a failed bulk round trip by its HTTP status.
// Capacity and gateway failures are transient, anything else is
// permanent for the whole batch.
func Rejection(
	status int, reason string,
) error {

	if (ItemResult{Status: status}).Transient() {
		return failure.New(failure.TransientRejection, "bulk request rejected with status %d: %s", status, reason)
	}
	return failure.New(failure.PermanentRejection, "bulk request failed with status %d: %s", status, reason)
}
