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

package testsupport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBulkBody(t *testing.T) {
	body := `{"index":{"_index":"hive","_id":"1","routing":"7"}}
{"name":"Fugees"}
{"update":{"_index":"hive","_type":"artists","_id":"2","_parent":"3"}}
{"doc":{"name":"Kraftwerk"},"doc_as_upsert":true}
`
	entries, err := ParseBulkBody([]byte(body))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "index", entries[0].Action)
	assert.Equal(t, "1", entries[0].Id)
	assert.Equal(t, "7", entries[0].Routing)
	assert.Equal(t, "Fugees", entries[0].Source.Get("name").String())

	assert.Equal(t, "update", entries[1].Action)
	assert.Equal(t, "artists", entries[1].Type)
	assert.Equal(t, "3", entries[1].Parent)
	assert.Equal(t, "Kraftwerk", entries[1].Source.Get("name").String())
}

func TestParseBulkBody_Invalid(t *testing.T) {
	_, err := ParseBulkBody([]byte(`{"index":{}}`))
	assert.Error(t, err)

	_, err = ParseBulkBody([]byte("{\"index\":{}}\n{broken\n"))
	assert.Error(t, err)
}

func TestArtistLines(t *testing.T) {
	lines := ArtistLines(3, 4)
	require.Len(t, lines, 2)
	assert.Equal(t,
		"3\tArtist 3\thttp://www.last.fm/music/artist-3,http://userserve-ak.last.fm/serve/252/3.jpg\t2012-10-04T19:20:25.000Z",
		lines[0],
	)

	dir := t.TempDir()
	path, err := WriteLines(dir, "part-00000", lines...)
	require.NoError(t, err)
	assert.FileExists(t, path)
}
