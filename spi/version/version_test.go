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

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStoreVersion(t *testing.T) {
	tests := []struct {
		input    string
		expected StoreVersion
		typeless bool
	}{
		{"6.8.23", 60823, false},
		{"7.0", 70000, true},
		{"8.17.0-SNAPSHOT", 81700, true},
		{"2.4.6", 20406, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := ParseStoreVersion(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
			assert.Equal(t, tt.typeless, v.Typeless())
		})
	}
}

func TestParseStoreVersion_Invalid(t *testing.T) {
	_, err := ParseStoreVersion("latest")
	assert.Error(t, err)
}

func TestStoreVersion_Compare(t *testing.T) {
	assert.Equal(t, -1, StoreVersion(60000).Compare(70000))
	assert.Equal(t, 1, StoreVersion(70100).Compare(70000))
	assert.Equal(t, 0, StoreVersion(70000).Compare(70000))
	assert.Equal(t, "7.10.2", StoreVersion(71002).String())
}
