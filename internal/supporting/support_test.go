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

package supporting

import (
	"fmt"
	"testing"

	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/noctarius/es-bulk-exporter/spi/source"
	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli"
)

func TestOnce(t *testing.T) {
	once := Once[string]{}
	assert.True(t, once.First("idx-a"))
	assert.False(t, once.First("idx-a"))
	assert.True(t, once.First("idx-b"))
}

func TestRandomTextString(t *testing.T) {
	value := RandomTextString(12)
	assert.Len(t, value, 12)
	for _, r := range value {
		assert.True(t, r >= 'a' && r <= 'z')
	}
}

func TestExitCodeOf(t *testing.T) {
	assert.Equal(t, ExitCodeConfiguration, ExitCodeOf(failure.New(failure.Configuration, "broken")))
	assert.Equal(t, ExitCodeSink, ExitCodeOf(failure.New(failure.TransientRejection, "busy")))
	assert.Equal(t, ExitCodeGeneric, ExitCodeOf(assert.AnError))
	assert.Equal(t, ExitCodeSource, ExitCodeOf(fmt.Errorf("job: %w", source.NewReadError("p0", assert.AnError))))
}

func TestAdaptError(t *testing.T) {
	assert.Nil(t, AdaptError(nil, 1))

	exitError := AdaptError(assert.AnError, ExitCodeSource)
	assert.Equal(t, ExitCodeSource, exitError.ExitCode())

	same := cli.NewExitError("already adapted", 3)
	assert.Same(t, same, AdaptErrorWithMessage(same, "ignored", 4))

	wrapped := AdaptErrorWithMessage(assert.AnError, "reading source", ExitCodeSource)
	assert.Contains(t, wrapped.Error(), "reading source => err:")
}
