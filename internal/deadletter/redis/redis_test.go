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

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis"
	spiconfig "github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/deadletter"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/noctarius/es-bulk-exporter/testsupport/containers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/tidwall/gjson"
)

func TestRedisOptions(t *testing.T) {
	options := newRedisOptions(&spiconfig.Config{
		DeadLetter: spiconfig.DeadLetterConfig{
			Redis: spiconfig.RedisConfig{
				Address:  "redis:6380",
				Database: 2,
				Timeouts: spiconfig.RedisTimeoutConfig{Read: 10},
				TLS:      spiconfig.TLSConfig{Enabled: true, SkipVerify: true},
			},
		},
	})

	assert.Equal(t, "tcp", options.Network)
	assert.Equal(t, "redis:6380", options.Addr)
	assert.Equal(t, 2, options.DB)
	assert.Equal(t, 10*time.Second, options.ReadTimeout)
	assert.Equal(t, 3*time.Second, options.WriteTimeout)
	assert.Equal(t, 8*time.Millisecond, options.MinRetryBackoff)
	require.NotNil(t, options.TLSConfig)
	assert.True(t, options.TLSConfig.InsecureSkipVerify)
}

func TestRedisHandler_Publish(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	address := containers.Redis(t)

	config := &spiconfig.Config{
		DeadLetter: spiconfig.DeadLetterConfig{
			Type:  spiconfig.Redis,
			Redis: spiconfig.RedisConfig{Address: address, Stream: "failed-rows"},
		},
	}

	handler, err := deadletter.NewHandler(spiconfig.Redis, config)
	require.NoError(t, err)
	require.NoError(t, handler.Start())
	defer handler.Stop()

	require.NoError(t, handler.Publish(context.Background(), []deadletter.Letter{
		{Job: "job-1", Partition: "p0", Ordinal: 1, Kind: failure.Coercion, Reason: "overflow"},
		{Job: "job-1", Partition: "p0", Ordinal: 2, Kind: failure.PermanentRejection, Reason: "exists"},
	}))

	client := redis.NewClient(&redis.Options{Addr: address})
	defer client.Close()

	messages, err := client.XRange("failed-rows", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "job-1/p0", messages[0].Values["key"])
	assert.Equal(t, "coercion", messages[0].Values["kind"])
	assert.Equal(t, "exists", gjson.Get(messages[1].Values["letter"].(string), "reason").String())
}
