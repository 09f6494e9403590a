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

package transform

import (
	"testing"

	"github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/noctarius/es-bulk-exporter/spi/schema"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func columns(
	t *testing.T, ddl string,
) *schema.Schema {

	s, err := schema.ParseColumns(ddl)
	require.NoError(t, err)
	return s
}

func TestTransform_Identity(t *testing.T) {
	s := columns(t, "id BIGINT, name STRING")
	template, err := Compile(nil, nil, nil, s)
	require.NoError(t, err)
	assert.True(t, template.Identity())

	row := &schema.Row{Schema: s, Values: []any{"1", "a"}}
	result, keep, err := template.NewTransformer().Transform(row)
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Same(t, row, result)
}

func TestTransform_Filters(t *testing.T) {
	s := columns(t, "id BIGINT, name STRING")
	template, err := Compile(map[string]config.FilterConfig{
		"small-ids": {Condition: `int(id) < 10`},
		"no-test":   {Condition: `name == "test"`, DefaultValue: lo.ToPtr(false)},
	}, nil, nil, s)
	require.NoError(t, err)
	transformer := template.NewTransformer()

	tests := []struct {
		values []any
		keep   bool
	}{
		{[]any{"1", "Fugees"}, true},
		{[]any{"12", "Fugees"}, false},
		{[]any{"2", "test"}, false},
	}
	for _, tt := range tests {
		_, keep, err := transformer.Transform(&schema.Row{Schema: s, Values: tt.values})
		require.NoError(t, err)
		assert.Equal(t, tt.keep, keep, "%v", tt.values)
	}
}

func TestTransform_Filter_EvaluationFailure(t *testing.T) {
	s := columns(t, "id BIGINT")
	template, err := Compile(map[string]config.FilterConfig{
		"numeric": {Condition: `int(id) > 0`},
	}, nil, nil, s)
	require.NoError(t, err)

	_, _, err = template.NewTransformer().Transform(&schema.Row{Schema: s, Values: []any{"abc"}})
	assert.True(t, failure.Is(err, failure.Coercion))
}

func TestTransform_Filters_TypedOperators(t *testing.T) {
	s := columns(t, "id BIGINT, name STRING")
	template, err := Compile(map[string]config.FilterConfig{
		"long-names": {Condition: `len(name) > 3`},
		"f-names":    {Condition: `name startsWith "F"`},
		"bounded":    {Condition: `let n = int(id); n >= 1 && n < 100`},
	}, nil, nil, s)
	require.NoError(t, err)
	transformer := template.NewTransformer()

	_, keep, err := transformer.Transform(&schema.Row{Schema: s, Values: []any{"7", "Fugees"}})
	require.NoError(t, err)
	assert.True(t, keep)

	_, keep, err = transformer.Transform(&schema.Row{Schema: s, Values: []any{"7", "Fun"}})
	require.NoError(t, err)
	assert.False(t, keep)

	_, keep, err = transformer.Transform(&schema.Row{Schema: s, Values: []any{"7", "Tricky"}})
	require.NoError(t, err)
	assert.False(t, keep)
}

func TestTransform_Projection(t *testing.T) {
	source := columns(t, "id BIGINT, name STRING, url STRING, picture STRING")
	target := columns(t, "id BIGINT, name STRING, links STRUCT<url:STRING, picture:STRING>")

	template, err := Compile(nil, map[string]string{
		"links": `{url: url, picture: picture}`,
	}, source, target)
	require.NoError(t, err)
	assert.False(t, template.Identity())
	assert.Same(t, source, template.Source())

	row, keep, err := template.NewTransformer().Transform(&schema.Row{
		Schema: source, Values: []any{"1", "MALICE MIZER", "http://www.last.fm/music/MALICE+MIZER", "http://userserve-ak.last.fm/serve/252/10808.jpg"},
	})
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Same(t, target, row.Schema)
	assert.Equal(t, "1", row.Values[0])
	assert.Equal(t, map[string]any{
		"url":     "http://www.last.fm/music/MALICE+MIZER",
		"picture": "http://userserve-ak.last.fm/serve/252/10808.jpg",
	}, row.Values[2])
}

func TestTransform_ConfigurationErrors(t *testing.T) {
	source := columns(t, "id BIGINT, name STRING")
	target := columns(t, "id BIGINT, title STRING")

	_, err := Compile(nil, nil, source, target)
	assert.True(t, failure.Is(err, failure.Configuration))

	_, err = Compile(nil, map[string]string{"unknown": "id"}, source, source)
	assert.True(t, failure.Is(err, failure.Configuration))

	_, err = Compile(nil, map[string]string{"title": "missing_column + 1"}, source, target)
	assert.True(t, failure.Is(err, failure.Configuration))

	_, err = Compile(map[string]config.FilterConfig{"broken": {Condition: "id +"}}, nil, nil, source)
	assert.True(t, failure.Is(err, failure.Configuration))

	_, err = Compile(map[string]config.FilterConfig{"typo": {Condition: `int(idd) > 1`}}, nil, nil, source)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.Configuration))
	assert.Contains(t, err.Error(), "unknown column 'idd'")
}
