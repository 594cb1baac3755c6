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
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// ChecksumType identifies one of the digest algorithms the DDI API uses
// to protect artifact downloads.
type ChecksumType int

const (
	// ChecksumNone means no digest was declared, so none was checked.
	ChecksumNone ChecksumType = iota
	ChecksumMD5
	ChecksumSHA1
	ChecksumSHA256
)

// checksumPreference orders the algorithms from strongest to weakest;
// downloads verify against the first one the artifact declares.
var checksumPreference = []ChecksumType{ChecksumSHA256, ChecksumSHA1, ChecksumMD5}

func (t ChecksumType) String() string {
	switch t {
	case ChecksumMD5:
		return "md5"
	case ChecksumSHA1:
		return "sha1"
	case ChecksumSHA256:
		return "sha256"
	default:
		return "none"
	}
}

func (t ChecksumType) newHash() hash.Hash {
	switch t {
	case ChecksumMD5:
		return md5.New()
	case ChecksumSHA1:
		return sha1.New()
	case ChecksumSHA256:
		return sha256.New()
	default:
		return nil
	}
}

// verifyCopy streams src into dst while computing the typ digest of the
// bytes as they pass, then compares it to expected ignoring hex case.
// dst receives every byte read from src even when the comparison fails.
// A mismatch is a *ChecksumError; read and write failures keep their
// own error types.
func verifyCopy(dst io.Writer, src io.Reader, typ ChecksumType, expected string) error {
	digest := typ.newHash()
	if _, err := io.Copy(io.MultiWriter(dst, digest), src); err != nil {
		return errors.Wrap(err, "stream artifact")
	}
	computed := hex.EncodeToString(digest.Sum(nil))
	if !strings.EqualFold(computed, expected) {
		return &ChecksumError{Type: typ, Expected: expected, Computed: computed}
	}
	return nil
}
