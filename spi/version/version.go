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
	"fmt"
	"regexp"
	"strconv"

	"github.com/go-errors/errors"
)

var storeVersionRegex = regexp.MustCompile(`^([0-9]+)\.([0-9]+)(\.([0-9]+))?`)

// StoreVersion 7.0.0 removed mapping types, parent fields and
// per-document ttl from the bulk API.
const TYPELESS_VERSION StoreVersion = 70000

var (
	BinName    = "es-bulk-exporter"
	Version    = "0.1.0"
	CommitHash = "unknown"
	Branch     = "unknown"
)

// StoreVersion represents the parsed and comparable version
// number of the connected document store
type StoreVersion uint

// Major returns the major version
func (sv StoreVersion) Major() uint {
	return uint(sv) / 10000
}

// Minor returns the minor version
func (sv StoreVersion) Minor() uint {
	return (uint(sv) / 100) % 100
}

// Release returns the release version
func (sv StoreVersion) Release() uint {
	return uint(sv) % 100
}

// String returns the string representation of the version
// as in >>major.minor.release<<
func (sv StoreVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", sv.Major(), sv.Minor(), sv.Release())
}

// Compare returns a negative value if the current version
// is lower than other, returns 0 if the versions match,
// otherwise it returns a value larger than 0.
func (sv StoreVersion) Compare(other StoreVersion) int {
	if sv < other {
		return -1
	}
	if sv > other {
		return 1
	}
	return 0
}

// Typeless returns true if the store rejects the legacy bulk
// metadata.
func (sv StoreVersion) Typeless() bool {
	return sv.Compare(TYPELESS_VERSION) >= 0
}

// ParseStoreVersion parses a version number as reported by the
// root endpoint of the document store, e.g. "6.8.23" or
// "8.17.0-SNAPSHOT"
func ParseStoreVersion(version string) (StoreVersion, error) {
	matches := storeVersionRegex.FindStringSubmatch(version)
	if len(matches) < 3 {
		return 0, errors.Errorf("failed to extract store version from '%s'", version)
	}

	v, err := strconv.ParseUint(matches[1], 10, 32)
	if err != nil {
		return 0, errors.Wrap(err, 0)
	}
	major := uint(v)

	v, err = strconv.ParseUint(matches[2], 10, 32)
	if err != nil {
		return 0, errors.Wrap(err, 0)
	}
	minor := uint(v)

	release := uint(0)
	if matches[4] != "" {
		v, err = strconv.ParseUint(matches[4], 10, 32)
		if err != nil {
			return 0, errors.Wrap(err, 0)
		}
		release = uint(v)
	}

	return StoreVersion((major * 10000) + (minor * 100) + release), nil
}
