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
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

// ArtistsColumns is the column list of the artists fixture table.
const ArtistsColumns = "id BIGINT, name STRING, links STRUCT<url:STRING, picture:STRING>, ts TIMESTAMP"

func CreateTempFile(
	pattern string,
) (string, error) {

	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return f.Name(), nil
}

// WriteLines writes a source file into dir and returns its path.
func WriteLines(
	dir, name string, lines ...string,
) (string, error) {

	path := filepath.Join(dir, name)
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// ArtistLines renders artists from..to in the default delimited
// text format, one line per artist.
func ArtistLines(
	from, to int,
) []string {

	lines := make([]string, 0, to-from+1)
	for id := from; id <= to; id++ {
		lines = append(lines, strings.Join([]string{
			fmt.Sprintf("%d", id),
			fmt.Sprintf("Artist %d", id),
			fmt.Sprintf("http://www.last.fm/music/artist-%d,http://userserve-ak.last.fm/serve/252/%d.jpg", id, id),
			fmt.Sprintf("2012-10-%02dT19:20:25.000Z", 1+id%28),
		}, "\t"))
	}
	return lines
}

func RandomNumber(
	min, max int,
) int {

	return min + rand.Intn(max-min)
}
