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
	"testing"

	"github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/noctarius/es-bulk-exporter/spi/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *config.Config {
	return &config.Config{
		Resource: config.ResourceConfig{Index: "hive/artists"},
		Schema:   config.SchemaConfig{Columns: "id BIGINT, name STRING, url STRING"},
		Mapping:  config.MappingConfig{Id: "id", Names: "url:href"},
		Write:    config.WriteConfig{Operation: "upsert"},
		Workers:  4,
	}
}

func TestCompileSettings(t *testing.T) {
	settings, err := CompileSettings(validConfig())
	require.NoError(t, err)

	assert.Equal(t, sink.Upsert, settings.Template.Operation())
	assert.Equal(t, "[href=STRING, id=LONG, name=STRING]", settings.Plan.Mapping().String())
	assert.Equal(t, 4, settings.Workers)
	assert.True(t, settings.Transform.Identity())
	assert.Equal(t, 1000, settings.Options.BatchEntries)
}

func TestCompileSettings_Projection(t *testing.T) {
	c := validConfig()
	c.Schema.Columns = "id BIGINT, links STRUCT<url:STRING>"
	c.Mapping.Names = ""
	c.Source.Columns = "id BIGINT, url STRING"
	c.Source.Projection = map[string]string{"links": "{url: url}"}

	settings, err := CompileSettings(c)
	require.NoError(t, err)
	assert.False(t, settings.Transform.Identity())
	assert.Equal(t, 2, settings.Transform.Source().Len())
}

func TestCompileSettings_ConfigurationErrors(t *testing.T) {
	for name, modify := range map[string]func(c *config.Config){
		"no columns":       func(c *config.Config) { c.Schema.Columns = "" },
		"broken columns":   func(c *config.Config) { c.Schema.Columns = "id NOTATYPE" },
		"no resource":      func(c *config.Config) { c.Resource.Index = "" },
		"unknown field":    func(c *config.Config) { c.Resource.Index = "hive/{missing}" },
		"operation":        func(c *config.Config) { c.Write.Operation = "delete" },
		"update id":        func(c *config.Config) { c.Mapping.Id = "" },
		"alias":            func(c *config.Config) { c.Mapping.Names = "url" },
		"batch bytes":      func(c *config.Config) { c.Batch.Bytes = "huge" },
		"filter":           func(c *config.Config) { c.Filters = map[string]config.FilterConfig{"x": {Condition: "id +"}} },
		"projection":       func(c *config.Config) { c.Source.Projection = map[string]string{"nope": "id"} },
		"missing column":   func(c *config.Config) { c.Source.Columns = "id BIGINT" },
		"constant id":      func(c *config.Config) { c.Mapping.Id = "<1>" },
		"unknown metadata": func(c *config.Config) { c.Mapping.Parent = "missing" },
	} {
		c := validConfig()
		modify(c)
		_, err := CompileSettings(c)
		require.Error(t, err, name)
		assert.True(t, failure.Is(err, failure.Configuration), name)
	}
}

func TestCompileSettings_LegacyMetadata(t *testing.T) {
	for name, tt := range map[string]struct {
		sinkType config.SinkType
		dialect  config.BulkDialect
		valid    bool
	}{
		"memory":             {sinkType: config.Memory, valid: true},
		"http legacy":        {sinkType: config.Http, dialect: config.Legacy, valid: true},
		"http default":       {sinkType: config.Http},
		"http modern":        {sinkType: config.Http, dialect: config.Modern},
		"http auto":          {sinkType: config.Http, dialect: config.AutoDialect},
		"stdout legacy":      {sinkType: config.Stdout, dialect: config.Legacy, valid: true},
		"elasticsearch":      {sinkType: config.Elasticsearch},
		"elasticsearch flag": {sinkType: config.Elasticsearch, dialect: config.Legacy},
	} {
		for _, modify := range []func(c *config.Config){
			func(c *config.Config) { c.Mapping.TTL = `<"5m">` },
			func(c *config.Config) { c.Mapping.Timestamp = "<2012-10-01T19:20:25Z>" },
		} {
			c := validConfig()
			c.Sink.Type = tt.sinkType
			c.Sink.Http.Dialect = tt.dialect
			modify(c)

			_, err := CompileSettings(c)
			if tt.valid {
				assert.NoError(t, err, name)
				continue
			}
			require.Error(t, err, name)
			assert.True(t, failure.Is(err, failure.Configuration), name)
			assert.Contains(t, err.Error(), "legacy bulk dialect", name)
		}
	}
}
