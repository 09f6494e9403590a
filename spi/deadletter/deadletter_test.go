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

package deadletter

import (
	"context"
	"testing"

	"github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandler_None(t *testing.T) {
	for _, name := range []config.DeadLetterType{"", config.NoDeadLetter} {
		handler, err := NewHandler(name, &config.Config{})
		require.NoError(t, err)
		require.NoError(t, handler.Start())
		assert.NoError(t, handler.Publish(context.Background(), []Letter{{Reason: "ignored"}}))
		require.NoError(t, handler.Stop())
	}
}

func TestNewHandler_Unknown(t *testing.T) {
	_, err := NewHandler("carrier-pigeon", &config.Config{})
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.Configuration))
}

func TestRegisterHandler(t *testing.T) {
	published := make([]Letter, 0)
	handler := HandlerFunc(func(_ context.Context, letters []Letter) error {
		published = append(published, letters...)
		return nil
	})

	assert.True(t, RegisterHandler("test-collect", func(_ *config.Config) (Handler, error) {
		return handler, nil
	}))
	assert.False(t, RegisterHandler(config.NoDeadLetter, nil))

	h, err := NewHandler("test-collect", &config.Config{})
	require.NoError(t, err)
	require.NoError(t, h.Publish(context.Background(), []Letter{{Job: "j", Partition: "p", Ordinal: 3}}))
	require.Len(t, published, 1)
	assert.Equal(t, "j/p", published[0].Key())
}
