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

package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := map[string]time.Time{
		"2012-10-06":                    time.Date(2012, 10, 6, 0, 0, 0, 0, time.UTC),
		"2012-10-06T14:30:15Z":          time.Date(2012, 10, 6, 14, 30, 15, 0, time.UTC),
		"2012-10-06T14:30:15.250Z":      time.Date(2012, 10, 6, 14, 30, 15, 250000000, time.UTC),
		"2012-10-06 14:30:15":           time.Date(2012, 10, 6, 14, 30, 15, 0, time.UTC),
		"2012-10-06 14:30:15.5":         time.Date(2012, 10, 6, 14, 30, 15, 500000000, time.UTC),
		"2012-10-06T14:30:15":           time.Date(2012, 10, 6, 14, 30, 15, 0, time.UTC),
		"  2012/10/06 ":                 time.Date(2012, 10, 6, 0, 0, 0, 0, time.UTC),
		"2012-10-06T14:30:15.000+02:00": time.Date(2012, 10, 6, 12, 30, 15, 0, time.UTC),
	}
	for text, expected := range cases {
		actual, ok := Parse(text)
		require.True(t, ok, text)
		assert.True(t, expected.Equal(actual), "%s: %s != %s", text, expected, actual)
	}

	for _, text := range []string{"", "yesterday", "2012-13-01", "12", "06/10/2012"} {
		_, ok := Parse(text)
		assert.False(t, ok, text)
	}
}

func TestDetectable(t *testing.T) {
	assert.True(t, Detectable("2012-10-06"))
	assert.True(t, Detectable("2012-10-06T14:30:15.250Z"))
	assert.True(t, Detectable("2012/10/06"))
	assert.False(t, Detectable("2012-10-06 14:30:15"))
	assert.False(t, Detectable("2012-10-32"))
	assert.False(t, Detectable("http://example.com"))
	assert.False(t, Detectable("12"))
}

func TestLayout_Format(t *testing.T) {
	ts := time.Date(2012, 10, 6, 9, 5, 3, 42000000, time.UTC)
	cases := map[string]string{
		"YYYY-MM-dd":                "2012-10-06",
		"yyyy.MM.dd":                "2012.10.06",
		"yy-M-d":                    "12-10-6",
		"yyyy-MM-dd'T'HH:mm:ss.SSS": "2012-10-06T09:05:03.042",
		"MMM yyyy":                  "Oct 2012",
		"MMMM":                      "October",
		"hh a":                      "09 AM",
		"EEE":                       "Sat",
		"D":                         "280",
		"'week' ''":                 "week '",
	}
	for pattern, expected := range cases {
		layout, err := CompileLayout(pattern)
		require.NoError(t, err, pattern)
		assert.Equal(t, expected, layout.Format(ts), pattern)
	}
}

func TestCompileLayout_Errors(t *testing.T) {
	for _, pattern := range []string{"", "yyyy-qq", "'unterminated"} {
		_, err := CompileLayout(pattern)
		assert.Error(t, err, pattern)
	}
}
