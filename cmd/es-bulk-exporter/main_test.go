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

package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-errors/errors"
	"github.com/noctarius/es-bulk-exporter/internal/exporter"
	"github.com/noctarius/es-bulk-exporter/spi/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticChecker struct {
	check *exporter.MappingCheck
	err   error
}

func (s staticChecker) CheckMapping(
	_ context.Context,
) (*exporter.MappingCheck, error) {

	return s.check, s.err
}

func (s staticChecker) Mapping() string {
	return "artists=[id=LONG]"
}

func TestPrintStoreMapping_ReadFailureIsReturned(t *testing.T) {
	out := &bytes.Buffer{}
	err := printStoreMapping(context.Background(), staticChecker{err: errors.Errorf("mapping request returned 503")}, out)
	require.Error(t, err)
	assert.ErrorContains(t, err, "503")
	assert.Empty(t, out.String())
}

func TestPrintStoreMapping_Unavailable(t *testing.T) {
	out := &bytes.Buffer{}
	require.NoError(t, printStoreMapping(context.Background(), staticChecker{}, out))
	assert.Empty(t, out.String())
}

func TestPrintStoreMapping_Reported(t *testing.T) {
	out := &bytes.Buffer{}
	check := &exporter.MappingCheck{
		Name:     "artists",
		Derived:  document.Mapping{"id": document.Leaf(document.LongType)},
		Reported: document.Mapping{"id": document.Leaf(document.LongType)},
	}
	require.NoError(t, printStoreMapping(context.Background(), staticChecker{check: check}, out))
	assert.Equal(t, "Store mapping: artists=[id=LONG]\n", out.String())
}
