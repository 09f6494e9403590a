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

package wiring

import (
	"testing"

	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter interface {
	Greet() string
}

type englishGreeter struct {
	name string
}

func (g *englishGreeter) Greet() string {
	return "hello " + g.name
}

type germanGreeter struct {
}

func (g *germanGreeter) Greet() string {
	return "hallo"
}

type constructed struct {
	ready bool
}

func (c *constructed) PostConstruct() error {
	c.ready = true
	return nil
}

func Test_Container_Resolves_Dependencies(t *testing.T) {
	name := "exporter"
	container, err := NewContainer(
		DefineModule("values", func(module Module) {
			module.ProvideValue(&name)
		}),
		DefineModule("services", func(module Module) {
			module.Provide(func(name *string) greeter {
				return &englishGreeter{name: *name}
			})
		}),
	)
	require.NoError(t, err)

	var g greeter
	require.NoError(t, container.Service(&g))
	assert.Equal(t, "hello exporter", g.Greet())
}

func Test_Container_Later_Module_Overrides(t *testing.T) {
	container, err := NewContainer(
		DefineModule("first", func(module Module) {
			module.Provide(func() greeter {
				return &englishGreeter{name: "x"}
			})
		}),
		DefineModule("second", func(module Module) {
			module.Provide(func() greeter {
				return &germanGreeter{}
			})
		}),
	)
	require.NoError(t, err)

	var g greeter
	require.NoError(t, container.Service(&g))
	assert.Equal(t, "hallo", g.Greet())
}

func Test_Container_Post_Construct(t *testing.T) {
	container, err := NewContainer(
		DefineModule("services", func(module Module) {
			module.Provide(func() *constructed {
				return &constructed{}
			})
		}),
	)
	require.NoError(t, err)

	var c *constructed
	require.NoError(t, container.Service(&c))
	assert.True(t, c.ready)
}

func Test_Container_Constructor_Error(t *testing.T) {
	expected := errors.New("broken")
	container, err := NewContainer(
		DefineModule("services", func(module Module) {
			module.Provide(func() (greeter, error) {
				return nil, expected
			})
		}),
	)
	require.NoError(t, err)

	var g greeter
	err = container.Service(&g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func Test_Container_Forced_Initialization(t *testing.T) {
	calls := 0
	_, err := NewContainer(
		DefineModule("services", func(module Module) {
			module.Provide(func() greeter {
				calls++
				return &germanGreeter{}
			}, ForceInitialization())
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func Test_Container_Invoke(t *testing.T) {
	var greeting string
	_, err := NewContainer(
		DefineModule("services", func(module Module) {
			module.Provide(func() greeter {
				return &germanGreeter{}
			})
			module.Invoke(func(g greeter) {
				greeting = g.Greet()
			})
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, "hallo", greeting)

	_, err = NewContainer(
		DefineModule("services", func(module Module) {
			module.Invoke(func() error {
				return errors.New("failed")
			})
		}),
	)
	assert.Error(t, err)
}

func Test_Container_Invalid_Target(t *testing.T) {
	container, err := NewContainer()
	require.NoError(t, err)

	var g greeter
	assert.Error(t, container.Service(g))
	assert.Error(t, container.Service(&g))
}

func Test_Module_Rejects_Non_Functions(t *testing.T) {
	assert.Panics(t, func() {
		DefineModule("broken", func(module Module) {
			module.Provide("not a function")
		})
	})
	assert.Panics(t, func() {
		DefineModule("broken", func(module Module) {
			module.Provide(func() (greeter, string) {
				return nil, ""
			})
		})
	})
}
