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
	"reflect"

	"github.com/go-errors/errors"
	"github.com/samber/do"
	"github.com/samber/lo"
)

var errorReflectiveType = reflect.TypeOf((*error)(nil)).Elem()

// PostConstructable services get a chance to finish their setup
// after all dependencies were injected.
type PostConstructable interface {
	PostConstruct() error
}

type ProvideOption interface {
	applyProvideOption(binding *binding)
}

// ForceInitialization creates the service when the container is
// built instead of on first use.
func ForceInitialization() ProvideOption {
	return forceInitializationProvideOption{}
}

type forceInitializationProvideOption struct {
}

func (f forceInitializationProvideOption) applyProvideOption(binding *binding) {
	binding.forceInit = true
}

// Module is a named set of service constructors. Services are
// identified by the type they are returned as, a later module
// replaces the constructor an earlier module registered for the
// same type.
type Module interface {
	Name() string
	Provide(constructor any, options ...ProvideOption)
	ProvideValue(value any)
	Invoke(call any)
	register(injector *do.Injector)
	initialize(injector *do.Injector) error
}

func DefineModule(name string, definer func(module Module)) Module {
	m := &module{
		name: name,
	}
	definer(m)
	return m
}

type module struct {
	name     string
	bindings []*binding
}

type binding struct {
	name      string
	inputs    []reflect.Type
	output    reflect.Type
	forceInit bool
	provider  func(injector *do.Injector) (any, error)
	invoker   func(injector *do.Injector) error
}

func (m *module) Name() string {
	return m.name
}

func (m *module) register(injector *do.Injector) {
	for _, b := range m.bindings {
		if b.invoker != nil {
			continue
		}
		if lo.Contains(injector.ListProvidedServices(), b.name) {
			do.OverrideNamed(injector, b.name, b.provider)
		} else {
			do.ProvideNamed(injector, b.name, b.provider)
		}
	}
}

func (m *module) initialize(injector *do.Injector) error {
	for _, b := range m.bindings {
		if b.invoker != nil {
			if err := b.invoker(injector); err != nil {
				return err
			}
		}
		if b.forceInit {
			if _, err := do.InvokeNamed[any](injector, b.name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Provide registers a constructor function. Its parameters are
// resolved from the container, it returns the service and
// optionally an error.
func (m *module) Provide(constructor any, options ...ProvideOption) {
	t, v := m.function(constructor, 2)

	b := &binding{
		inputs: parameters(t),
		output: t.Out(0),
		name:   t.Out(0).String(),
	}
	b.provider = func(injector *do.Injector) (any, error) {
		results, err := call(injector, v, b.inputs)
		if err != nil {
			return nil, err
		}
		if t.NumOut() == 2 {
			if err := asError(results[1]); err != nil {
				return nil, err
			}
		}
		value := results[0].Interface()
		if pc, ok := value.(PostConstructable); ok {
			if err := pc.PostConstruct(); err != nil {
				return nil, err
			}
		}
		return value, nil
	}

	for _, option := range options {
		option.applyProvideOption(b)
	}
	m.bindings = append(m.bindings, b)
}

// ProvideValue registers an already created service under its
// dynamic type.
func (m *module) ProvideValue(value any) {
	t := reflect.TypeOf(value)
	if t == nil {
		panic(errors.Errorf("module %s: cannot provide an untyped nil value", m.name))
	}
	m.bindings = append(m.bindings, &binding{
		name:   t.String(),
		output: t,
		provider: func(_ *do.Injector) (any, error) {
			return value, nil
		},
	})
}

// Invoke registers a function called with resolved services once
// all modules are registered. It may return an error.
func (m *module) Invoke(callee any) {
	t, v := m.function(callee, 1)
	if t.NumOut() == 1 && !t.Out(0).ConvertibleTo(errorReflectiveType) {
		panic(errors.Errorf("module %s: %s may only return an error", m.name, t.String()))
	}

	b := &binding{
		name:   t.String(),
		inputs: parameters(t),
	}
	b.invoker = func(injector *do.Injector) error {
		results, err := call(injector, v, b.inputs)
		if err != nil {
			return err
		}
		if t.NumOut() == 1 {
			return asError(results[0])
		}
		return nil
	}
	m.bindings = append(m.bindings, b)
}

func (m *module) function(fn any, maxResults int) (reflect.Type, reflect.Value) {
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func {
		panic(errors.Errorf("module %s: %v is not a function", m.name, t))
	}
	if t.NumOut() > maxResults {
		panic(errors.Errorf("module %s: %s returns %d values, at most %d allowed", m.name, t.String(), t.NumOut(), maxResults))
	}
	if maxResults == 2 {
		if t.NumOut() == 0 {
			panic(errors.Errorf("module %s: constructor %s returns nothing", m.name, t.String()))
		}
		if t.NumOut() == 2 && !t.Out(1).ConvertibleTo(errorReflectiveType) {
			panic(errors.Errorf("module %s: second return value of %s isn't an error", m.name, t.String()))
		}
	}
	return t, reflect.ValueOf(fn)
}

func parameters(t reflect.Type) []reflect.Type {
	inputs := make([]reflect.Type, t.NumIn())
	for i := range inputs {
		inputs[i] = t.In(i)
	}
	return inputs
}

func call(injector *do.Injector, fn reflect.Value, inputs []reflect.Type) ([]reflect.Value, error) {
	params := make([]reflect.Value, 0, len(inputs))
	for _, input := range inputs {
		param, err := do.InvokeNamed[any](injector, input.String())
		if err != nil {
			return nil, err
		}
		params = append(params, reflect.ValueOf(param))
	}
	return fn.Call(params), nil
}

func asError(value reflect.Value) error {
	if value.IsNil() {
		return nil
	}
	return value.Interface().(error)
}
