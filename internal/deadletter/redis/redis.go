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
	"crypto/tls"
	"time"

	"github.com/go-errors/errors"
	"github.com/go-redis/redis"
	spiconfig "github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/deadletter"
	"github.com/noctarius/es-bulk-exporter/spi/encoding"
)

func init() {
	deadletter.RegisterHandler(spiconfig.Redis, newRedisHandler)
}

type redisHandler struct {
	client  *redis.Client
	stream  string
	encoder *encoding.JsonEncoder
}

func newRedisOptions(config *spiconfig.Config) *redis.Options {
	options := &redis.Options{
		Network: spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisNetwork, "tcp",
		),
		Addr: spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisAddress, "localhost:6379",
		),
		Password: spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisPassword, "",
		),
		DB: spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisDatabase, 0,
		),
		MaxRetries: spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisRetriesMax, 0,
		),
		MinRetryBackoff: time.Duration(spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisRetriesBackoffMin, 8,
		)) * time.Millisecond,
		MaxRetryBackoff: time.Duration(spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisRetriesBackoffMax, 512,
		)) * time.Millisecond,
		DialTimeout: time.Duration(spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisTimeoutDial, 5,
		)) * time.Second,
		ReadTimeout: time.Duration(spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisTimeoutRead, 3,
		)) * time.Second,
		WriteTimeout: time.Duration(spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisTimeoutWrite, 3,
		)) * time.Second,
		PoolSize: spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisPoolsize, 0,
		),
		PoolTimeout: time.Duration(spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisTimeoutPool, 4,
		)) * time.Second,
		IdleTimeout: time.Duration(spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisTimeoutIdle, 5,
		)) * time.Minute,
	}

	if spiconfig.GetOrDefault(config, spiconfig.PropertyRedisTlsEnabled, false) {
		options.TLSConfig = &tls.Config{
			InsecureSkipVerify: spiconfig.GetOrDefault(
				config, spiconfig.PropertyRedisTlsSkipVerify, false,
			),
			ClientAuth: spiconfig.GetOrDefault(
				config, spiconfig.PropertyRedisTlsClientAuth, tls.NoClientCert,
			),
		}
	}
	return options
}

func newRedisHandler(config *spiconfig.Config) (deadletter.Handler, error) {
	return &redisHandler{
		client:  redis.NewClient(newRedisOptions(config)),
		stream:  spiconfig.GetOrDefault(config, spiconfig.PropertyRedisStream, "es-bulk-exporter.deadletters"),
		encoder: encoding.NewJsonEncoderWithConfig(config),
	}, nil
}

func (r *redisHandler) Start() error {
	if err := r.client.Ping().Err(); err != nil {
		return errors.Wrap(err, 0)
	}
	return nil
}

func (r *redisHandler) Stop() error {
	return r.client.Close()
}

func (r *redisHandler) Publish(
	ctx context.Context, letters []deadletter.Letter,
) error {

	pipeline := r.client.WithContext(ctx).TxPipeline()
	for _, letter := range letters {
		data, err := r.encoder.Marshal(letter)
		if err != nil {
			return errors.Wrap(err, 0)
		}
		pipeline.XAdd(&redis.XAddArgs{
			Stream: r.stream,
			Values: map[string]any{
				"key":    letter.Key(),
				"kind":   string(letter.Kind),
				"letter": string(data),
			},
		})
	}
	if _, err := pipeline.Exec(); err != nil {
		return errors.Wrap(err, 0)
	}
	return nil
}
