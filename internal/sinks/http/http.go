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

package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-errors/errors"
	"github.com/noctarius/es-bulk-exporter/internal/supporting/logging"
	config "github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/document"
	"github.com/noctarius/es-bulk-exporter/spi/encoding"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/noctarius/es-bulk-exporter/spi/sink"
	"github.com/noctarius/es-bulk-exporter/spi/version"
)

func init() {
	sink.RegisterSink(config.Http, newHttpSink)
}

func basicAuth(username, password string) string {
	auth := username + ":" + password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}

// httpSink talks to the REST bulk endpoint of the document store
// directly, which makes the legacy dialect available to older
// clusters.
type httpSink struct {
	client  *http.Client
	dialect config.BulkDialect
	encoder *encoding.JsonEncoder
	bulk    *encoding.BulkEncoder
	decoder *encoding.JsonDecoder
	address string
	headers http.Header
	logger  *logging.Logger
}

func newHttpSink(
	c *config.Config,
) (sink.Sink, error) {

	logger, err := logging.NewLogger("HttpSink")
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.GetOrDefault(c, config.PropertyHttpTlsEnabled, false) {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: config.GetOrDefault(
				c, config.PropertyHttpTlsSkipVerify, false,
			),
			ClientAuth: config.GetOrDefault(
				c, config.PropertyHttpTlsClientAuth, tls.NoClientCert,
			),
		}
	}

	address := strings.TrimSuffix(config.GetOrDefault(c, config.PropertyHttpUrl, "http://localhost:9200"), "/")
	if _, err := url.Parse(address); err != nil {
		return nil, failure.Wrap(failure.Configuration, err)
	}

	headers := make(http.Header)
	headers.Set("Content-Type", "application/x-ndjson")

	authenticationType := config.GetOrDefault(c, config.PropertyHttpAuthenticationType, config.NoneAuthentication)
	switch authenticationType {
	case config.BasicAuthentication:
		headers.Add("Authorization",
			fmt.Sprintf("Basic %s",
				basicAuth(config.GetOrDefault(c, config.PropertyHttpBasicAuthenticationUsername, ""),
					config.GetOrDefault(c, config.PropertyHttpBasicAuthenticationPassword, ""),
				),
			),
		)
	case config.HeaderAuthentication:
		headers.Add(config.GetOrDefault(c, config.PropertyHttpHeaderAuthenticationHeaderName, ""),
			config.GetOrDefault(c, config.PropertyHttpHeaderAuthenticationHeaderValue, ""),
		)
	case config.NoneAuthentication, "":
	default:
		return nil, failure.New(failure.Configuration, "http AuthenticationType '%s' doesn't exist", authenticationType)
	}

	dialect := config.GetOrDefault(c, config.PropertyHttpDialect, config.Modern)
	if dialect != config.Modern && dialect != config.Legacy && dialect != config.AutoDialect {
		return nil, failure.New(failure.Configuration, "bulk dialect '%s' doesn't exist", dialect)
	}

	encoder := encoding.NewJsonEncoderWithConfig(c)
	return &httpSink{
		client:  &http.Client{Transport: transport},
		dialect: dialect,
		encoder: encoder,
		bulk:    encoding.NewBulkEncoder(dialect, encoder),
		decoder: encoding.NewJsonDecoderWithConfig(c),
		address: address,
		headers: headers,
		logger:  logger,
	}, nil
}

func (h *httpSink) Start() error {
	if h.dialect == config.AutoDialect {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		storeVersion, err := h.storeVersion(ctx)
		if err != nil {
			return err
		}

		dialect := config.Legacy
		if storeVersion.Typeless() {
			dialect = config.Modern
		}
		h.logger.Infof("Detected document store version %s", storeVersion)
		h.bulk = encoding.NewBulkEncoder(dialect, h.encoder)
	}
	h.logger.Infof("Writing %s bulk requests to %s", h.bulk.Dialect(), h.address)
	return nil
}

func (h *httpSink) storeVersion(
	ctx context.Context,
) (version.StoreVersion, error) {

	status, body, err := h.do(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, errors.Errorf("version request failed with status %d", status)
	}

	info := struct {
		Version struct {
			Number string `json:"number"`
		} `json:"version"`
	}{}
	if err := h.decoder.Unmarshal(body, &info); err != nil {
		return 0, errors.Wrap(err, 0)
	}
	return version.ParseStoreVersion(info.Version.Number)
}

func (h *httpSink) Stop() error {
	h.client.CloseIdleConnections()
	return nil
}

func (h *httpSink) Bulk(
	ctx context.Context, requests []sink.WriteRequest,
) (*sink.BulkResponse, error) {

	payload, err := h.bulk.Encode(requests)
	if err != nil {
		return nil, err
	}

	status, body, err := h.do(ctx, http.MethodPost, "/_bulk", payload)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, sink.Rejection(status, string(body))
	}
	return encoding.DecodeBulkResponse(h.decoder, body, len(requests))
}

func (h *httpSink) IndexExists(
	ctx context.Context, index string,
) (bool, error) {

	status, _, err := h.do(ctx, http.MethodHead, "/"+url.PathEscape(index), nil)
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

func (h *httpSink) Mapping(
	ctx context.Context, index, name string,
) (document.Mapping, error) {

	status, body, err := h.do(ctx, http.MethodGet, "/"+url.PathEscape(index)+"/_mapping", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, errors.Errorf("mapping of '%s' failed with status %d: %s", index, status, body)
	}
	return encoding.DecodeMappingResponse(h.decoder, body, index, name)
}

func (h *httpSink) do(
	ctx context.Context, method, path string, payload []byte,
) (int, []byte, error) {

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.address+path, reader)
	if err != nil {
		return 0, nil, errors.Wrap(err, 0)
	}
	req.Header = h.headers.Clone()

	resp, err := h.client.Do(req)
	if err != nil {
		// connection level problems are worth another attempt
		return 0, nil, failure.Wrap(failure.TransientRejection, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, failure.Wrap(failure.TransientRejection, err)
	}
	return resp.StatusCode, body, nil
}
