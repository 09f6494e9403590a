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

package elasticsearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/go-errors/errors"
	"github.com/noctarius/es-bulk-exporter/internal/supporting/logging"
	config "github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/document"
	"github.com/noctarius/es-bulk-exporter/spi/encoding"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/noctarius/es-bulk-exporter/spi/sink"
)

func init() {
	sink.RegisterSink(config.Elasticsearch, newElasticsearchSink)
}

type elasticsearchSink struct {
	client  *elasticsearch.Client
	bulk    *encoding.BulkEncoder
	decoder *encoding.JsonDecoder
	logger  *logging.Logger
}

func newElasticsearchSink(
	c *config.Config,
) (sink.Sink, error) {

	logger, err := logging.NewLogger("ElasticsearchSink")
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.GetOrDefault(c, config.PropertyElasticsearchTlsSkipVerify, false) {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: config.GetOrDefault(c, config.PropertyElasticsearchAddresses, []string{"http://localhost:9200"}),
		Username:  config.GetOrDefault(c, config.PropertyElasticsearchUsername, ""),
		Password:  config.GetOrDefault(c, config.PropertyElasticsearchPassword, ""),
		APIKey:    config.GetOrDefault(c, config.PropertyElasticsearchApiKey, ""),
		CloudID:   config.GetOrDefault(c, config.PropertyElasticsearchCloudId, ""),
		Transport: transport,
		// retries are owned by the export pipeline
		DisableRetry: true,
	})
	if err != nil {
		return nil, failure.Wrap(failure.Configuration, err)
	}

	return &elasticsearchSink{
		client:  client,
		bulk:    encoding.NewBulkEncoder(config.Modern, encoding.NewJsonEncoderWithConfig(c)),
		decoder: encoding.NewJsonDecoderWithConfig(c),
		logger:  logger,
	}, nil
}

func (e *elasticsearchSink) Start() error {
	return nil
}

func (e *elasticsearchSink) Stop() error {
	return nil
}

func (e *elasticsearchSink) Bulk(
	ctx context.Context, requests []sink.WriteRequest,
) (*sink.BulkResponse, error) {

	payload, err := e.bulk.Encode(requests)
	if err != nil {
		return nil, err
	}

	response, err := e.client.Bulk(bytes.NewReader(payload), e.client.Bulk.WithContext(ctx))
	status, body, err := read(response, err)
	if err != nil {
		return nil, err
	}
	if response.IsError() {
		return nil, sink.Rejection(status, string(body))
	}
	return encoding.DecodeBulkResponse(e.decoder, body, len(requests))
}

func (e *elasticsearchSink) IndexExists(
	ctx context.Context, index string,
) (bool, error) {

	response, err := e.client.Indices.Exists([]string{index}, e.client.Indices.Exists.WithContext(ctx))
	status, _, err := read(response, err)
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, errors.Errorf("index check for '%s' failed with status %d", index, status)
}

func (e *elasticsearchSink) Mapping(
	ctx context.Context, index, name string,
) (document.Mapping, error) {

	response, err := e.client.Indices.GetMapping(
		e.client.Indices.GetMapping.WithIndex(index),
		e.client.Indices.GetMapping.WithContext(ctx),
	)
	status, body, err := read(response, err)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, errors.Errorf("mapping of '%s' failed with status %d: %s", index, status, body)
	}
	return encoding.DecodeMappingResponse(e.decoder, body, index, name)
}

func read(
	response *esapi.Response, err error,
) (int, []byte, error) {

	if err != nil {
		return 0, nil, failure.Wrap(failure.TransientRejection, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return 0, nil, failure.Wrap(failure.TransientRejection, err)
	}
	return response.StatusCode, body, nil
}
