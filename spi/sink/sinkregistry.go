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

package sink

import (
	"github.com/noctarius/es-bulk-exporter/spi/config"
)

var sinkRegistry = config.NewRegistry[config.SinkType, Provider]("sink type")

// RegisterSink makes a sink type available to NewSink, it
// returns false if the type was taken already.
func RegisterSink(name config.SinkType, provider Provider) bool {
	return sinkRegistry.Register(name, provider)
}

// NewSink creates the sink registered as name.
func NewSink(name config.SinkType, c *config.Config) (Sink, error) {
	provider, err := sinkRegistry.Lookup(name)
	if err != nil {
		return nil, err
	}
	return provider(c)
}

func RegisteredSinks() []config.SinkType {
	return sinkRegistry.Names()
}
