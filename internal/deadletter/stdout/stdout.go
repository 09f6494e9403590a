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
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-errors/errors"
	"github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/deadletter"
	"github.com/noctarius/es-bulk-exporter/spi/encoding"
)

func init() {
	deadletter.RegisterHandler(config.StdoutDeadLetter, newStdoutHandler)
}

type stdoutHandler struct {
	mutex   sync.Mutex
	writer  io.Writer
	encoder *encoding.JsonEncoder
}

func newStdoutHandler(c *config.Config) (deadletter.Handler, error) {
	return &stdoutHandler{
		writer:  os.Stdout,
		encoder: encoding.NewJsonEncoderWithConfig(c),
	}, nil
}

func (s *stdoutHandler) Start() error {
	return nil
}

func (s *stdoutHandler) Stop() error {
	return nil
}

func (s *stdoutHandler) Publish(
	_ context.Context, letters []deadletter.Letter,
) error {

	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, letter := range letters {
		data, err := s.encoder.Marshal(letter)
		if err != nil {
			return errors.Wrap(err, 0)
		}
		if _, err := fmt.Fprintf(s.writer, "%s\n", data); err != nil {
			return errors.Wrap(err, 0)
		}
	}
	return nil
}
