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

package stdout

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/go-errors/errors"
	"github.com/hashicorp/go-uuid"
	spiconfig "github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/encoding"
	"github.com/noctarius/es-bulk-exporter/spi/sink"
)

func init() {
	sink.RegisterSink(spiconfig.Stdout, newStdoutSink)
}

// stdoutSink prints every bulk request body and acknowledges all
// requests. Missing ids are generated so the output is replayable.
type stdoutSink struct {
	mutex  sync.Mutex
	writer io.Writer
	bulk   *encoding.BulkEncoder
}

func newStdoutSink(c *spiconfig.Config) (sink.Sink, error) {
	dialect := spiconfig.GetOrDefault(c, spiconfig.PropertyHttpDialect, spiconfig.Modern)
	return &stdoutSink{
		writer: os.Stdout,
		bulk:   encoding.NewBulkEncoder(dialect, encoding.NewJsonEncoderWithConfig(c)),
	}, nil
}

func (s *stdoutSink) Start() error {
	return nil
}

func (s *stdoutSink) Stop() error {
	return nil
}

func (s *stdoutSink) Bulk(
	_ context.Context, requests []sink.WriteRequest,
) (*sink.BulkResponse, error) {

	printed := make([]sink.WriteRequest, 0, len(requests))
	items := make([]sink.ItemResult, 0, len(requests))
	for _, request := range requests {
		if request.Document.Metadata.ID == "" {
			id, err := uuid.GenerateUUID()
			if err != nil {
				return nil, errors.Wrap(err, 0)
			}
			doc := *request.Document
			doc.Metadata.ID = id
			request.Document = &doc
		}
		printed = append(printed, request)
		items = append(items, sink.ItemResult{Status: 201, Id: request.Document.Metadata.ID})
	}

	payload, err := s.bulk.Encode(printed)
	if err != nil {
		return nil, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, err := s.writer.Write(payload); err != nil {
		return nil, errors.Wrap(err, 0)
	}
	return &sink.BulkResponse{Items: items}, nil
}

func (s *stdoutSink) IndexExists(
	_ context.Context, _ string,
) (bool, error) {

	return true, nil
}
