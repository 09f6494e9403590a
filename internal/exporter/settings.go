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
	"github.com/noctarius/es-bulk-exporter/internal/dispatch"
	"github.com/noctarius/es-bulk-exporter/internal/indexing"
	"github.com/noctarius/es-bulk-exporter/internal/mapping"
	"github.com/noctarius/es-bulk-exporter/internal/pipeline"
	"github.com/noctarius/es-bulk-exporter/internal/transform"
	"github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/noctarius/es-bulk-exporter/spi/schema"
	"github.com/noctarius/es-bulk-exporter/spi/sink"
)

// Settings is the compiled, validated configuration of an export.
// It is immutable and shared by all workers.
type Settings struct {
	Target    *schema.Schema
	Plan      *mapping.Plan
	Template  *dispatch.Template
	Transform *transform.Template
	Options   pipeline.Options
	Workers   int
}

func CompileSettings(
	c *config.Config,
) (*Settings, error) {

	columns := config.GetOrDefault(c, config.PropertySchemaColumns, "")
	if columns == "" {
		return nil, failure.New(failure.Configuration, "schema.columns must declare the target columns")
	}
	target, err := schema.ParseColumns(columns)
	if err != nil {
		return nil, failure.Wrap(failure.Configuration, err)
	}

	source := target
	if sourceColumns := config.GetOrDefault(c, config.PropertySourceColumns, ""); sourceColumns != "" {
		if source, err = schema.ParseColumns(sourceColumns); err != nil {
			return nil, failure.Wrap(failure.Configuration, err)
		}
	}

	aliases, err := mapping.ParseAliases(config.GetOrDefault(c, config.PropertyMappingNames, ""))
	if err != nil {
		return nil, err
	}
	plan, err := mapping.NewPlan(target, mapping.Options{
		Aliases:  aliases,
		Includes: config.GetOrDefault(c, config.PropertyMappingInclude, []string{}),
		Excludes: config.GetOrDefault(c, config.PropertyMappingExclude, []string{}),
	})
	if err != nil {
		return nil, err
	}

	resource, err := indexing.ParseResource(config.GetOrDefault(c, config.PropertyResourceIndex, ""))
	if err != nil {
		return nil, err
	}

	operation, err := sink.ParseOperation(config.GetOrDefault(c, config.PropertyWriteOperation, ""))
	if err != nil {
		return nil, err
	}

	ttl := config.GetOrDefault(c, config.PropertyMappingTtl, "")
	timestamp := config.GetOrDefault(c, config.PropertyMappingTimestamp, "")
	if err := checkLegacyMetadata(c, ttl, timestamp); err != nil {
		return nil, err
	}

	template, err := dispatch.Compile(dispatch.Settings{
		Operation:  operation,
		Id:         config.GetOrDefault(c, config.PropertyMappingId, ""),
		Parent:     config.GetOrDefault(c, config.PropertyMappingParent, ""),
		Routing:    config.GetOrDefault(c, config.PropertyMappingRouting, ""),
		Version:    config.GetOrDefault(c, config.PropertyMappingVersion, ""),
		TTL:        ttl,
		Timestamp:  timestamp,
		AutoCreate: config.GetOrDefault(c, config.PropertyResourceAutoCreate, true),
	}, resource, plan)
	if err != nil {
		return nil, err
	}

	transformation, err := transform.Compile(
		c.Filters, config.GetOrDefault(c, config.PropertySourceProjection, map[string]string{}), source, target,
	)
	if err != nil {
		return nil, err
	}

	options, err := pipeline.OptionsFromConfig(c)
	if err != nil {
		return nil, err
	}

	workers := config.GetOrDefault(c, config.PropertyWorkers, uint(1))
	if workers == 0 {
		workers = 1
	}

	return &Settings{
		Target:    target,
		Plan:      plan,
		Template:  template,
		Transform: transformation,
		Options:   options,
		Workers:   int(workers),
	}, nil
}

// checkLegacyMetadata rejects ttl and timestamp metadata for sinks
// writing the modern bulk dialect, which has no fields to carry
// them. The in-memory sink keeps them without encoding.
func checkLegacyMetadata(
	c *config.Config, ttl, timestamp string,
) error {

	if ttl == "" && timestamp == "" {
		return nil
	}

	dialect := config.Legacy
	switch sinkType := config.GetOrDefault(c, config.PropertySink, config.Memory); sinkType {
	case config.Elasticsearch:
		dialect = config.Modern
	case config.Http, config.Stdout:
		dialect = config.GetOrDefault(c, config.PropertyHttpDialect, config.Modern)
	}
	if dialect == config.Legacy {
		return nil
	}

	property := config.PropertyMappingTtl
	if ttl == "" {
		property = config.PropertyMappingTimestamp
	}
	return failure.New(
		failure.Configuration, "%s needs the legacy bulk dialect, the sink writes '%s' (set %s = legacy)",
		property, dialect, config.PropertyHttpDialect,
	)
}
