/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package restconf

import (
	"errors"
	"fmt"
)

var (
	ErrBaseURLRequired  = errors.New("controller base_url is required")
	ErrInvalidBaseURL   = errors.New("controller base_url must be an absolute http(s) URL")
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidField     = errors.New("invalid field")
	ErrEmptyResult      = errors.New("response contained no entries")
	ErrNoStreamName     = errors.New("subscription response carried no stream name")
	ErrNoStreamLocation = errors.New("stream resolution returned no location")
)

// TransportError reports a request that failed on the wire or returned a
// non-2xx status. StatusCode is zero when no response was received.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}

	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError reports a response body that is malformed or does not match
// the expected shape of Resource.
type DecodeError struct {
	Resource string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Resource, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is or wraps a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError

	return errors.As(err, &te)
}

// IsDecodeError reports whether err is or wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError

	return errors.As(err, &de)
}
