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

package testrunner

import (
	"context"
	"path/filepath"
	"time"

	"github.com/noctarius/es-bulk-exporter/internal/exporter"
	"github.com/noctarius/es-bulk-exporter/internal/pipeline"
	"github.com/noctarius/es-bulk-exporter/internal/sinks/memory"
	"github.com/noctarius/es-bulk-exporter/internal/supporting/logging"
	spiconfig "github.com/noctarius/es-bulk-exporter/spi/config"
	inttest "github.com/noctarius/es-bulk-exporter/testsupport"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type Context interface {
	Config() *spiconfig.Config
	WriteSource(name string, lines ...string) error
	Export(ctx context.Context) (*pipeline.Report, error)
	Exporter() (*exporter.Exporter, error)
	Memory() *memory.Sink
	attribute(key string, value any)
	getAttribute(key string) any
}

type SetupContext interface {
	Context
	AddConfigConfigurator(fn func(config *spiconfig.Config))
}

func Attribute[V any](context Context, key string, value V) {
	context.attribute(key, value)
}

func GetAttribute[V any](context Context, key string) V {
	return context.getAttribute(key).(V)
}

type testContext struct {
	dir        string
	config     *spiconfig.Config
	exporter   *exporter.Exporter
	attributes map[string]any

	setupFunctions      []func(setupContext SetupContext) error
	tearDownFunction    []func(Context) error
	configConfigurators []func(config *spiconfig.Config)
}

func (t *testContext) Config() *spiconfig.Config {
	return t.config
}

func (t *testContext) WriteSource(name string, lines ...string) error {
	_, err := inttest.WriteLines(t.dir, name, lines...)
	return err
}

// Exporter creates the exporter on first use, after all setup
// functions had the chance to adjust the configuration.
func (t *testContext) Exporter() (*exporter.Exporter, error) {
	if t.exporter != nil {
		return t.exporter, nil
	}
	for _, configurator := range t.configConfigurators {
		configurator(t.config)
	}
	e, err := exporter.NewExporter(t.config)
	if err != nil {
		return nil, err
	}
	t.exporter = e
	return e, nil
}

func (t *testContext) Export(ctx context.Context) (*pipeline.Report, error) {
	e, err := t.Exporter()
	if err != nil {
		return nil, err
	}
	return e.Run(ctx)
}

func (t *testContext) Memory() *memory.Sink {
	if t.exporter == nil {
		return nil
	}
	if s, ok := t.exporter.Sink().(*memory.Sink); ok {
		return s
	}
	return nil
}

func (t *testContext) AddConfigConfigurator(fn func(config *spiconfig.Config)) {
	t.configConfigurators = append(t.configConfigurators, fn)
}

func (t *testContext) attribute(key string, value any) {
	t.attributes[key] = value
}

func (t *testContext) getAttribute(key string) any {
	return t.attributes[key]
}

// TestRunner runs exports of delimited artist files into the
// in-memory store, one fresh source directory per test.
type TestRunner struct {
	suite.Suite

	logger *logging.Logger

	withCaller bool
}

type testConfigurator func(context *testContext)

func WithSetup(fn func(setupContext SetupContext) error) testConfigurator {
	return func(context *testContext) {
		context.setupFunctions = append(context.setupFunctions, fn)
	}
}

func WithTearDown(fn func(context Context) error) testConfigurator {
	return func(context *testContext) {
		context.tearDownFunction = append(context.tearDownFunction, fn)
	}
}

func WithConfig(fn func(config *spiconfig.Config)) testConfigurator {
	return func(context *testContext) {
		context.configConfigurators = append(context.configConfigurators, fn)
	}
}

func (tr *TestRunner) SetupSuite() {
	tr.withCaller = logging.WithCaller
	logging.WithCaller = true

	c := &spiconfig.Config{
		Logging: spiconfig.LoggerConfig{
			Level: "debug",
			Outputs: spiconfig.LoggerOutputConfig{
				Console: spiconfig.LoggerConsoleConfig{
					Enabled: lo.ToPtr(true),
				},
			},
		},
	}

	if err := logging.InitializeLogging(c, false); err != nil {
		tr.T().Error(err)
	}

	logger, err := logging.NewLogger("TestRunner")
	if err != nil {
		tr.T().Error(err)
	}
	tr.logger = logger
}

func (tr *TestRunner) TearDownSuite() {
	logging.WithCaller = tr.withCaller
}

func (tr *TestRunner) RunTest(testFn func(context Context) error, configurators ...testConfigurator) {
	dir := tr.T().TempDir()

	tc := &testContext{
		dir: dir,
		config: &spiconfig.Config{
			Resource: spiconfig.ResourceConfig{Index: "hive/artists"},
			Schema:   spiconfig.SchemaConfig{Columns: inttest.ArtistsColumns},
			Source: spiconfig.SourceConfig{
				Format: spiconfig.Delimited,
				Paths:  []string{filepath.Join(dir, "*")},
			},
			Sink: spiconfig.SinkConfig{Type: spiconfig.Memory},
			Batch: spiconfig.BatchConfig{
				Retry: spiconfig.BatchRetryConfig{Wait: time.Millisecond},
			},
			Stats: spiconfig.StatsConfig{Enabled: lo.ToPtr(false)},
		},
		attributes: make(map[string]any),
	}

	for _, configurator := range configurators {
		configurator(tc)
	}

	for _, setupFn := range tc.setupFunctions {
		if err := setupFn(tc); err != nil {
			tr.T().Fatalf("failed to setup test: %+v", err)
			return
		}
	}

	defer func() {
		for _, tearDownFn := range tc.tearDownFunction {
			if err := tearDownFn(tc); err != nil {
				tr.T().Fatalf("failed to tear down test: %+v", err)
				return
			}
		}
	}()

	if err := testFn(tc); err != nil {
		tr.T().Fatalf("failure in test: %+v", err)
		return
	}
}
