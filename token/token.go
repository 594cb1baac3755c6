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

package token

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const tokenBytes = 32

// LoadOrGenerate returns the gateway token stored at path, generating
// and persisting a fresh one when the file does not exist.
func LoadOrGenerate(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Debug("token file doesn't exist, generating it")
		token, err := generate()
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(path, []byte(token+"\n"), 0600); err != nil {
			return "", errors.Wrap(err, "write token file")
		}
		return token, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "read token file")
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", errors.Errorf("token file %s is empty", path)
	}
	return token, nil
}

func generate() (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Wrap(err, "generate token")
	}
	log.Info("gateway token generated")
	return hex.EncodeToString(raw), nil
}
