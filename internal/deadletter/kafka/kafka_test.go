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

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	spiconfig "github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/deadletter"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestKafkaHandler_Publish(t *testing.T) {
	config := &spiconfig.Config{
		DeadLetter: spiconfig.DeadLetterConfig{
			Kafka: spiconfig.KafkaConfig{Topic: "failed-rows"},
		},
	}

	producer := mocks.NewSyncProducer(t, nil)
	checker := func(topic, partition string) mocks.MessageChecker {
		return func(msg *sarama.ProducerMessage) error {
			assert.Equal(t, topic, msg.Topic)
			key, err := msg.Key.Encode()
			require.NoError(t, err)
			assert.Equal(t, "job-1/"+partition, string(key))
			value, err := msg.Value.Encode()
			require.NoError(t, err)
			assert.Equal(t, "sink-permanent", gjson.GetBytes(value, "kind").String())
			return nil
		}
	}
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(checker("failed-rows", "a"))
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(checker("failed-rows", "b"))

	handler := newKafkaHandlerWithProducer(config, producer)
	err := handler.Publish(context.Background(), []deadletter.Letter{
		{Job: "job-1", Partition: "a", Kind: failure.PermanentRejection, Timestamp: time.Now()},
		{Job: "job-1", Partition: "b", Kind: failure.PermanentRejection, Timestamp: time.Now()},
	})
	require.NoError(t, err)
	require.NoError(t, handler.Stop())
}

func TestKafkaConfig(t *testing.T) {
	config := &spiconfig.Config{
		DeadLetter: spiconfig.DeadLetterConfig{
			Kafka: spiconfig.KafkaConfig{
				Idempotent: true,
				Sasl: spiconfig.KafkaSaslConfig{
					Enabled:   true,
					User:      "user",
					Password:  "secret",
					Mechanism: sarama.SASLTypeSCRAMSHA256,
				},
			},
		},
	}

	c := newKafkaConfig(config)
	assert.True(t, c.Producer.Idempotent)
	assert.Equal(t, sarama.WaitForAll, c.Producer.RequiredAcks)
	assert.True(t, c.Net.SASL.Enable)
	assert.Equal(t, "user", c.Net.SASL.User)
	assert.Equal(t, sarama.SASLMechanism(sarama.SASLTypeSCRAMSHA256), c.Net.SASL.Mechanism)
	assert.False(t, c.Net.TLS.Enable)
}
