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
	"bytes"
	"context"
	"strings"
	"testing"

	spiconfig "github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/document"
	"github.com/noctarius/es-bulk-exporter/spi/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestStdoutSink_Bulk(t *testing.T) {
	s, err := newStdoutSink(&spiconfig.Config{})
	require.NoError(t, err)

	buffer := &bytes.Buffer{}
	s.(*stdoutSink).writer = buffer

	requests := []sink.WriteRequest{
		{Operation: sink.Index, Index: "hive", Document: &document.Document{Source: document.ObjectOf("a", int64(1))}},
		{Operation: sink.Create, Index: "hive", Document: &document.Document{
			Source: document.ObjectOf("a", int64(2)), Metadata: document.Metadata{ID: "2"},
		}},
	}

	response, err := s.Bulk(context.Background(), requests)
	require.NoError(t, err)
	require.Len(t, response.Items, 2)
	assert.Equal(t, 0, response.Failures())
	assert.NotEmpty(t, response.Items[0].Id)
	assert.Equal(t, "2", response.Items[1].Id)
	assert.Empty(t, requests[0].Document.Metadata.ID)

	lines := strings.Split(strings.TrimSuffix(buffer.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, response.Items[0].Id, gjson.Get(lines[0], "index._id").String())
	assert.Equal(t, "2", gjson.Get(lines[2], "create._id").String())
}
