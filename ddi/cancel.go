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

// CancelRequest is a lazy handle on a cancelAction resource.
type CancelRequest struct {
	httpClient *http.Client
	url        string
}

// Fetch retrieves the cancellation and the id of the action it stops.
func (r *CancelRequest) Fetch(ctx context.Context) (*CancelAction, error) {
	var base model.CancelBase
	if err := getJSON(ctx, r.httpClient, r.url, &base); err != nil {
		return nil, err
	}
	return &CancelAction{httpClient: r.httpClient, url: r.url, base: base}, nil
}

// CancelAction asks the controller to stop working on an earlier
// action. The controller acknowledges with closed feedback: success
// accepts the cancellation, failure rejects it.
type CancelAction struct {
	httpClient *http.Client
	url        string
	base       model.CancelBase
}

// ActionID returns the id of the cancel action itself, used in its
// feedback.
func (a *CancelAction) ActionID() string {
	return a.base.ID
}

// StopID returns the id of the action to stop.
func (a *CancelAction) StopID() string {
	return a.base.CancelAction.StopID
}

// SendFeedback reports the outcome of the cancellation.
func (a *CancelAction) SendFeedback(ctx context.Context,
	execution model.Execution, finished model.Finished, details ...string) error {
	return sendDeploymentFeedback(ctx, a.httpClient, a.url, a.base.ID,
		execution, finished, nil, details)
}
