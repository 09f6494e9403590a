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

package source

import (
	"bufio"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-errors/errors"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
)

const maxLineLength = 64 * 1024 * 1024

// expandPaths resolves globs and directories into a sorted list of
// regular files. Every file becomes one partition.
func expandPaths(
	patterns []string,
) ([]string, error) {

	if len(patterns) == 0 {
		return nil, failure.New(failure.Configuration, "no source paths configured")
	}

	files := make([]string, 0)
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, failure.Wrap(failure.Configuration, err)
		}
		if len(matches) == 0 {
			return nil, failure.New(failure.Configuration, "source path '%s' matches no files", pattern)
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return nil, errors.Wrap(err, 0)
			}
			if !info.IsDir() {
				files = append(files, match)
				continue
			}
			entries, err := os.ReadDir(match)
			if err != nil {
				return nil, errors.Wrap(err, 0)
			}
			for _, entry := range entries {
				if entry.Type().IsRegular() {
					files = append(files, filepath.Join(match, entry.Name()))
				}
			}
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// lineReader yields the non-empty lines of a file.
type lineReader struct {
	name    string
	file    *os.File
	scanner *bufio.Scanner
}

func openLines(
	path string,
) (*lineReader, error) {

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	return &lineReader{
		name:    filepath.Base(path),
		file:    file,
		scanner: scanner,
	}, nil
}

// next returns false at the end of the file.
func (l *lineReader) next() (string, bool, error) {
	for l.scanner.Scan() {
		line := l.scanner.Text()
		if line == "" {
			continue
		}
		return line, true, nil
	}
	if err := l.scanner.Err(); err != nil {
		return "", false, errors.Wrap(err, 0)
	}
	return "", false, nil
}

func (l *lineReader) Name() string {
	return l.name
}

func (l *lineReader) Close() error {
	return l.file.Close()
}
