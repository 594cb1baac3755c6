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
	"context"
	"net/http"

	"github.com/mendersoftware/hawkbit-ddi-client/model"
)

// ConfigRequest is the server's standing request for controller
// attributes, announced through the configData link of a poll.
type ConfigRequest struct {
	httpClient *http.Client
	url        string
}

// Upload sends controller attributes. The mode selects how the server
// folds them into the attributes it already holds: merge, replace or
// remove.
func (r *ConfigRequest) Upload(ctx context.Context, mode model.ConfigMode, data map[string]string) error {
	configData := model.ConfigData{Mode: mode, Data: data}
	return sendJSON(ctx, r.httpClient, http.MethodPut, r.url, configData)
}
