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
	"crypto/tls"

	"github.com/IBM/sarama"
	"github.com/go-errors/errors"
	spiconfig "github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/deadletter"
	"github.com/noctarius/es-bulk-exporter/spi/encoding"
)

func init() {
	deadletter.RegisterHandler(spiconfig.Kafka, newKafkaHandler)
}

type kafkaHandler struct {
	producer sarama.SyncProducer
	topic    string
	encoder  *encoding.JsonEncoder
}

func newKafkaConfig(config *spiconfig.Config) *sarama.Config {
	c := sarama.NewConfig()
	c.ClientID = "es-bulk-exporter"
	c.Producer.Idempotent = spiconfig.GetOrDefault(config, spiconfig.PropertyKafkaIdempotent, false)
	c.Producer.Return.Successes = true
	c.Producer.RequiredAcks = sarama.WaitForLocal
	c.Producer.Retry.Max = 10
	if c.Producer.Idempotent {
		c.Version = sarama.V2_1_0_0
		c.Producer.RequiredAcks = sarama.WaitForAll
		c.Net.MaxOpenRequests = 1
	}

	if spiconfig.GetOrDefault(config, spiconfig.PropertyKafkaSaslEnabled, false) {
		c.Net.SASL.Enable = true
		c.Net.SASL.User = spiconfig.GetOrDefault(
			config, spiconfig.PropertyKafkaSaslUser, "",
		)
		c.Net.SASL.Password = spiconfig.GetOrDefault(
			config, spiconfig.PropertyKafkaSaslPassword, "",
		)
		c.Net.SASL.Mechanism = spiconfig.GetOrDefault[sarama.SASLMechanism](
			config, spiconfig.PropertyKafkaSaslMechanism, sarama.SASLTypePlaintext,
		)
	}

	if spiconfig.GetOrDefault(config, spiconfig.PropertyKafkaTlsEnabled, false) {
		c.Net.TLS.Enable = true
		c.Net.TLS.Config = &tls.Config{
			InsecureSkipVerify: spiconfig.GetOrDefault(
				config, spiconfig.PropertyKafkaTlsSkipVerify, false,
			),
			ClientAuth: spiconfig.GetOrDefault(
				config, spiconfig.PropertyKafkaTlsClientAuth, tls.NoClientCert,
			),
		}
	}
	return c
}

func newKafkaHandler(config *spiconfig.Config) (deadletter.Handler, error) {
	producer, err := sarama.NewSyncProducer(
		spiconfig.GetOrDefault(config, spiconfig.PropertyKafkaBrokers, []string{"localhost:9092"}),
		newKafkaConfig(config),
	)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	return newKafkaHandlerWithProducer(config, producer), nil
}

func newKafkaHandlerWithProducer(config *spiconfig.Config, producer sarama.SyncProducer) *kafkaHandler {
	return &kafkaHandler{
		producer: producer,
		topic:    spiconfig.GetOrDefault(config, spiconfig.PropertyKafkaTopic, "es-bulk-exporter.deadletters"),
		encoder:  encoding.NewJsonEncoderWithConfig(config),
	}
}

func (k *kafkaHandler) Start() error {
	return nil
}

func (k *kafkaHandler) Stop() error {
	return k.producer.Close()
}

func (k *kafkaHandler) Publish(
	_ context.Context, letters []deadletter.Letter,
) error {

	messages := make([]*sarama.ProducerMessage, 0, len(letters))
	for _, letter := range letters {
		data, err := k.encoder.Marshal(letter)
		if err != nil {
			return errors.Wrap(err, 0)
		}
		messages = append(messages, &sarama.ProducerMessage{
			Topic:     k.topic,
			Key:       sarama.StringEncoder(letter.Key()),
			Value:     sarama.ByteEncoder(data),
			Timestamp: letter.Timestamp,
		})
	}
	return k.producer.SendMessages(messages)
}
