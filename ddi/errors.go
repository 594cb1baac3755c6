// Copyright 2026 Northern.tech AS
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package ddi

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidToken means a token contains bytes that cannot be
	// carried in an HTTP header. Reported by New, never per request.
	ErrInvalidToken = errors.New("invalid token format")

	// ErrInvalidSleep means the poll reply carried no polling interval
	// or one that is not in HH:MM:SS form. The reply is otherwise
	// usable; callers fall back to their own interval.
	ErrInvalidSleep = errors.New("invalid polling sleep")

	// ErrAlreadyDecided means Confirm or Decline was called on a
	// confirmation handle that already spent its decision.
	ErrAlreadyDecided = errors.New("confirmation already decided")

	// ErrNotHierarchicalURL means an action URL cannot take the
	// trailing feedback path segment.
	ErrNotHierarchicalURL = errors.New("url is not hierarchical")
)

// HTTPError is returned when the server answers outside the 2xx range.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("server returned %s for %s", e.Status, e.URL)
}

// ChecksumError reports a digest mismatch on an artifact download. The
// bytes have already been written to the caller's sink when it is
// returned.
type ChecksumError struct {
	Type     ChecksumType
	Expected string
	Computed string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%s checksum mismatch: expected %s, computed %s",
		e.Type, e.Expected, e.Computed)
}
