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

package exporter

import (
	"github.com/noctarius/es-bulk-exporter/internal/pipeline"
	"github.com/noctarius/es-bulk-exporter/internal/stats"
	"github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/deadletter"
	"github.com/noctarius/es-bulk-exporter/spi/encoding"
	"github.com/noctarius/es-bulk-exporter/spi/sink"
	"github.com/noctarius/es-bulk-exporter/spi/wiring"
)

var StaticModule = wiring.DefineModule(
	"Static", func(module wiring.Module) {
		module.Provide(CompileSettings)
		module.Provide(stats.NewStatsService)
		module.Provide(encoding.NewJsonEncoderWithConfig)

		module.Provide(func(c *config.Config, encoder *encoding.JsonEncoder) *encoding.BulkEncoder {
			// batch sizes are measured in the dialect the sink speaks
			dialect := config.GetOrDefault(c, config.PropertyHttpDialect, config.Modern)
			if dialect == config.AutoDialect {
				dialect = config.Modern
			}
			return encoding.NewBulkEncoder(dialect, encoder)
		})

		module.Provide(func(
			settings *Settings, s sink.Sink, handler deadletter.Handler,
			bulk *encoding.BulkEncoder, statsService *stats.Service,
		) (*pipeline.Job, error) {

			return pipeline.NewJob(
				settings.Template, s, bulk, settings.Options,
				pipeline.WithTransformers(func() (pipeline.Transformer, error) {
					return settings.Transform.NewTransformer(), nil
				}),
				pipeline.WithDeadLetters(handler),
				pipeline.WithWorkers(settings.Workers),
				pipeline.WithStats(statsService),
			)
		})
	},
)

var DynamicModule = wiring.DefineModule(
	"Dynamic", func(module wiring.Module) {
		module.Provide(func(c *config.Config) (sink.Sink, error) {
			name := config.GetOrDefault(c, config.PropertySink, config.Memory)
			return sink.NewSink(name, c)
		})

		module.Provide(func(c *config.Config) (deadletter.Handler, error) {
			name := config.GetOrDefault(c, config.PropertyDeadLetter, config.NoDeadLetter)
			return deadletter.NewHandler(name, c)
		})
	},
)
