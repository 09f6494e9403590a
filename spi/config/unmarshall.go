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

package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"gopkg.in/yaml.v3"
)

// Format is the syntax of a configuration file.
type Format string

const (
	Toml Format = "toml"
	Yaml Format = "yaml"
)

// FormatOf picks the format by file extension, anything but .toml
// is read as YAML.
func FormatOf(
	path string,
) Format {

	if strings.ToLower(filepath.Ext(path)) == ".toml" {
		return Toml
	}
	return Yaml
}

// LoadFile reads and decodes a configuration file.
func LoadFile(
	path string,
) (*Config, error) {

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, failure.New(failure.Configuration, "configuration file couldn't be read: %s", err)
	}
	config := &Config{}
	if err := Unmarshall(content, config, FormatOf(path)); err != nil {
		return nil, err
	}
	return config, nil
}

func Unmarshall(
	content []byte, config *Config, format Format,
) error {

	var err error
	switch format {
	case Toml:
		err = toml.Unmarshal(content, config)
	case Yaml:
		err = yaml.Unmarshal(content, config)
	default:
		return failure.New(failure.Configuration, "unknown configuration format '%s'", format)
	}
	if err != nil {
		return failure.New(failure.Configuration, "configuration couldn't be decoded: %s", err)
	}
	return nil
}
