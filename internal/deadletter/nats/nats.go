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

package nats

import (
	"context"
	"time"

	"github.com/go-errors/errors"
	"github.com/nats-io/nats.go"
	spiconfig "github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/deadletter"
	"github.com/noctarius/es-bulk-exporter/spi/encoding"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
)

func init() {
	deadletter.RegisterHandler(spiconfig.NATS, newNatsHandler)
}

type natsHandler struct {
	client           *nats.Conn
	jetStreamContext nats.JetStreamContext
	subject          string
	encoder          *encoding.JsonEncoder
}

func newNatsHandler(config *spiconfig.Config) (deadletter.Handler, error) {
	options, err := authorizationOption(config)
	if err != nil {
		return nil, err
	}

	address := spiconfig.GetOrDefault(config, spiconfig.PropertyNatsAddress, "nats://localhost:4222")
	client, jetStreamContext, err := connectJetStreamContext(address, options)
	if err != nil {
		return nil, err
	}

	return &natsHandler{
		client:           client,
		jetStreamContext: jetStreamContext,
		subject:          spiconfig.GetOrDefault(config, spiconfig.PropertyNatsSubject, "es-bulk-exporter.deadletters"),
		encoder:          encoding.NewJsonEncoderWithConfig(config),
	}, nil
}

func authorizationOption(config *spiconfig.Config) (nats.Option, error) {
	authorization := spiconfig.GetOrDefault(config, spiconfig.PropertyNatsAuthorization, "userinfo")
	switch spiconfig.NatsAuthorizationType(authorization) {
	case spiconfig.UserInfo:
		username := spiconfig.GetOrDefault(config, spiconfig.PropertyNatsUserinfoUsername, "")
		password := spiconfig.GetOrDefault(config, spiconfig.PropertyNatsUserinfoPassword, "")
		return nats.UserInfo(username, password), nil
	case spiconfig.Credentials:
		certificate := spiconfig.GetOrDefault(config, spiconfig.PropertyNatsCredentialsCertificate, "")
		seeds := spiconfig.GetOrDefault(config, spiconfig.PropertyNatsCredentialsSeeds, []string{})
		return nats.UserCredentials(certificate, seeds...), nil
	case spiconfig.Jwt:
		jwt := spiconfig.GetOrDefault(config, spiconfig.PropertyNatsJwt, "")
		seed := spiconfig.GetOrDefault(config, spiconfig.PropertyNatsJwtSeed, "")
		return nats.UserJWTAndSeed(jwt, seed), nil
	}
	return nil, failure.New(failure.Configuration, "NATS AuthorizationType '%s' doesn't exist", authorization)
}

func connectJetStreamContext(
	address string, option nats.Option,
) (*nats.Conn, nats.JetStreamContext, error) {

	client, err := nats.Connect(address,
		option,
		nats.Name("es-bulk-exporter"),
		nats.RetryOnFailedConnect(true),
		nats.ReconnectWait(time.Second*10),
		nats.ReconnectBufSize(1024*1024),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, 0)
	}

	jetStreamContext, err := client.JetStream()
	if err != nil {
		client.Close()
		return nil, nil, errors.Wrap(err, 0)
	}
	return client, jetStreamContext, nil
}

func (n *natsHandler) Start() error {
	return nil
}

func (n *natsHandler) Stop() error {
	n.client.Close()
	return nil
}

func (n *natsHandler) Publish(
	ctx context.Context, letters []deadletter.Letter,
) error {

	for _, letter := range letters {
		data, err := n.encoder.Marshal(letter)
		if err != nil {
			return errors.Wrap(err, 0)
		}

		header := nats.Header{}
		header.Add("key", letter.Key())
		header.Add("kind", string(letter.Kind))

		if _, err := n.jetStreamContext.PublishMsg(
			&nats.Msg{
				Subject: n.subject,
				Header:  header,
				Data:    data,
			},
			nats.Context(ctx),
		); err != nil {
			return errors.Wrap(err, 0)
		}
	}
	return nil
}
