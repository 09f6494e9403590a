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
	"time"

	"github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/document"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
)

// Letter describes a row which failed permanently.
type Letter struct {
	Job       string           `json:"job"`
	Partition string           `json:"partition"`
	Ordinal   int64            `json:"ordinal"`
	Kind      failure.Kind     `json:"kind"`
	Reason    string           `json:"reason"`
	Index     string           `json:"index,omitempty"`
	Id        string           `json:"id,omitempty"`
	Document  *document.Object `json:"document,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Key identifies the letter within its job, used as message key
// or partition key by the handlers.
func (l Letter) Key() string {
	return l.Job + "/" + l.Partition
}

// Handler publishes dead letters. Publishing failures are logged
// by the caller and never change the job outcome.
type Handler interface {
	Start() error
	Stop() error
	Publish(
		ctx context.Context, letters []Letter,
	) error
}

type Provider = func(config *config.Config) (Handler, error)

type noopHandler struct{}

func (noopHandler) Start() error {
	return nil
}

func (noopHandler) Stop() error {
	return nil
}

func (noopHandler) Publish(
	_ context.Context, _ []Letter,
) error {

	return nil
}

// HandlerFunc adapts a function into a Handler.
type HandlerFunc func(ctx context.Context, letters []Letter) error

func (hf HandlerFunc) Start() error {
	return nil
}

func (hf HandlerFunc) Stop() error {
	return nil
}

func (hf HandlerFunc) Publish(
	ctx context.Context, letters []Letter,
) error {

	return hf(ctx, letters)
}

var handlerRegistry = func() *config.Registry[config.DeadLetterType, Provider] {
	registry := config.NewRegistry[config.DeadLetterType, Provider]("dead letter type")
	registry.Register(config.NoDeadLetter, func(_ *config.Config) (Handler, error) {
		return noopHandler{}, nil
	})
	return registry
}()

// RegisterHandler makes a dead letter type available to
// NewHandler, it returns false if the type was taken already.
func RegisterHandler(name config.DeadLetterType, provider Provider) bool {
	return handlerRegistry.Register(name, provider)
}

// NewHandler instantiates the requested Handler, an unset type
// selects the handler discarding all letters.
func NewHandler(name config.DeadLetterType, c *config.Config) (Handler, error) {
	if name == "" {
		name = config.NoDeadLetter
	}
	provider, err := handlerRegistry.Lookup(name)
	if err != nil {
		return nil, err
	}
	return provider(c)
}
