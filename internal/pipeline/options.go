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

package pipeline

import (
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
)

// Options control batching and flushing of one exporter.
type Options struct {
	BatchEntries      int
	BatchBytes        int
	RetryCount        int
	RetryWait         time.Duration
	FlushTimeout      time.Duration
	RequestsPerSecond float64
	FailFast          bool
}

func DefaultOptions() Options {
	return Options{
		BatchEntries: 1000,
		BatchBytes:   int(bytesize.MB),
		RetryCount:   3,
		RetryWait:    10 * time.Second,
		FlushTimeout: time.Minute,
	}
}

// OptionsFromConfig reads the batch and write sections.
func OptionsFromConfig(
	c *config.Config,
) (Options, error) {

	defaults := DefaultOptions()
	options := Options{
		BatchEntries:      config.GetOrDefault(c, config.PropertyBatchEntries, defaults.BatchEntries),
		BatchBytes:        defaults.BatchBytes,
		RetryCount:        config.GetOrDefault(c, config.PropertyBatchRetryCount, defaults.RetryCount),
		RetryWait:         config.GetOrDefault(c, config.PropertyBatchRetryWait, defaults.RetryWait),
		FlushTimeout:      config.GetOrDefault(c, config.PropertyBatchFlushTimeout, defaults.FlushTimeout),
		RequestsPerSecond: config.GetOrDefault(c, config.PropertyBatchRequestsPerSecond, float64(0)),
		FailFast:          config.GetOrDefault(c, config.PropertyWriteFailFast, false),
	}

	if size := config.GetOrDefault(c, config.PropertyBatchBytes, ""); size != "" {
		parsed, err := bytesize.Parse(size)
		if err != nil {
			return Options{}, failure.New(failure.Configuration, "invalid batch size '%s': %s", size, err)
		}
		options.BatchBytes = int(parsed)
	}

	switch {
	case options.BatchEntries <= 0:
		return Options{}, failure.New(failure.Configuration, "batch entries must be positive")
	case options.BatchBytes <= 0:
		return Options{}, failure.New(failure.Configuration, "batch bytes must be positive")
	case options.RetryCount < 0:
		return Options{}, failure.New(failure.Configuration, "retry count must not be negative")
	case options.FlushTimeout <= 0:
		return Options{}, failure.New(failure.Configuration, "flush timeout must be positive")
	}
	return options, nil
}
