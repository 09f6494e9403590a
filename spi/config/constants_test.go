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
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Constants_Properties(
	t *testing.T,
) {

	file, err := parser.ParseFile(&token.FileSet{}, "./constants.go", nil, 0)
	require.NoError(t, err)

	collector := &propertyCollector{properties: make(map[string]string)}
	ast.Walk(collector, file)
	require.NotEmpty(t, collector.properties)

	envNames := make(map[string]string)
	for name, property := range collector.properties {
		element := reflect.ValueOf(Config{})
		for _, segment := range strings.Split(property, ".") {
			e, ok := findProperty(element, segment)
			if !assert.True(t, ok, "property %s (%s) isn't defined in Config", name, property) {
				break
			}
			element = e
		}

		envName := strings.ReplaceAll(strings.ToUpper(property), "_", "__")
		envName = strings.ReplaceAll(envName, ".", "_")
		if other, present := envNames[envName]; present {
			t.Errorf("properties %s and %s share the environment variable %s", name, other, envName)
		}
		envNames[envName] = name
	}
}

type propertyCollector struct {
	properties map[string]string
}

func (v *propertyCollector) Visit(
	node ast.Node,
) (w ast.Visitor) {

	if valueSpec, ok := node.(*ast.ValueSpec); ok {
		if literal, ok := valueSpec.Values[0].(*ast.BasicLit); ok {
			if value, err := strconv.Unquote(literal.Value); err == nil {
				v.properties[valueSpec.Names[0].Name] = value
			}
		}
	}
	return v
}
