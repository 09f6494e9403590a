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

package failure

import (
	"fmt"

	"github.com/go-errors/errors"
)

// Kind classifies an export failure by how it propagates
// through the pipeline.
type Kind string

const (
	// Configuration failures are detected before any row is
	// written and abort the job.
	Configuration Kind = "configuration"
	// Coercion failures affect a single row whose value
	// couldn't be converted into its document representation.
	Coercion Kind = "coercion"
	// Resolution failures affect a single row whose destination
	// index name couldn't be computed.
	Resolution Kind = "resolution"
	// TransientRejection is a sink-side rejection eligible for
	// a retry, such as a capacity rejection or a timeout.
	TransientRejection Kind = "sink-transient"
	// PermanentRejection is a sink-side rejection that is
	// recorded and never retried.
	PermanentRejection Kind = "sink-permanent"
)

// PerRow returns true if failures of this kind are recorded
// against a single row instead of aborting the job.
func (k Kind) PerRow() bool {
	return k == Coercion || k == Resolution || k == PermanentRejection
}

type Error struct {
	kind  Kind
	path  string
	cause *errors.Error
}

func New(
	kind Kind, format string, args ...any,
) *Error {

	return &Error{
		kind:  kind,
		cause: errors.Wrap(fmt.Errorf(format, args...), 1),
	}
}

func Wrap(
	kind Kind, err error,
) *Error {

	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok && e.kind == kind {
		return e
	}
	return &Error{
		kind:  kind,
		cause: errors.Wrap(err, 1),
	}
}

func (e *Error) WithPath(
	path string,
) *Error {

	if e.path != "" {
		return e
	}
	return &Error{
		kind:  e.kind,
		path:  path,
		cause: e.cause,
	}
}

func (e *Error) Kind() Kind {
	return e.kind
}

func (e *Error) Path() string {
	return e.path
}

func (e *Error) Error() string {
	if e.path == "" {
		return fmt.Sprintf("%s error: %s", e.kind, e.cause.Error())
	}
	return fmt.Sprintf("%s error at '%s': %s", e.kind, e.path, e.cause.Error())
}

// Reason returns the message without the kind prefix.
func (e *Error) Reason() string {
	if e.path == "" {
		return e.cause.Error()
	}
	return fmt.Sprintf("%s: %s", e.path, e.cause.Error())
}

func (e *Error) ErrorStack() string {
	return e.cause.ErrorStack()
}

func (e *Error) Unwrap() error {
	return e.cause.Err
}

// KindOf extracts the Kind of the first *Error in the
// chain of err.
func KindOf(
	err error,
) (Kind, bool) {

	var e *Error
	if errors.As(err, &e) {
		return e.kind, true
	}
	return "", false
}

func Is(
	err error, kind Kind,
) bool {

	k, ok := KindOf(err)
	return ok && k == kind
}

// ReasonOf returns the most descriptive message for err.
func ReasonOf(
	err error,
) string {

	var e *Error
	if errors.As(err, &e) {
		return e.Reason()
	}
	return err.Error()
}
