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
	"slices"
	"sync"

	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/samber/lo"
)

// Registry maps the type names used in the configuration to the
// providers creating the matching implementation. Implementations
// register themselves from init functions.
type Registry[K ~string, P any] struct {
	kind      string
	mutex     sync.RWMutex
	providers map[K]P
}

func NewRegistry[K ~string, P any](
	kind string,
) *Registry[K, P] {

	return &Registry[K, P]{
		kind:      kind,
		providers: make(map[K]P),
	}
}

// Register binds the provider to name, the first registration
// wins and later attempts return false.
func (r *Registry[K, P]) Register(
	name K, provider P,
) bool {

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, present := r.providers[name]; present {
		return false
	}
	r.providers[name] = provider
	return true
}

// Lookup returns the provider registered for name. An unknown
// name is a configuration error listing the available names.
func (r *Registry[K, P]) Lookup(
	name K,
) (P, error) {

	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if provider, present := r.providers[name]; present {
		return provider, nil
	}
	var zero P
	return zero, failure.New(
		failure.Configuration, "%s '%s' doesn't exist, available: %v", r.kind, name, r.names(),
	)
}

func (r *Registry[K, P]) Names() []K {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.names()
}

func (r *Registry[K, P]) names() []K {
	names := lo.Keys(r.providers)
	slices.Sort(names)
	return names
}
