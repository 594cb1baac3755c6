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
	"sync/atomic"

	"github.com/mendersoftware/hawkbit-ddi-client/model"
)

// ConfirmationRequest is a pending confirmation gate. UpdateInfo
// inspects the gated deployment and may be called any number of times;
// Confirm and Decline spend the handle's single decision, and any
// further decision fails with ErrAlreadyDecided without reaching the
// server. The next poll hands out a fresh handle if the gate is still
// open.
type ConfirmationRequest struct {
	httpClient *http.Client
	url        string
	decided    atomic.Bool
}

func newConfirmationRequest(httpClient *http.Client, url string) *ConfirmationRequest {
	return &ConfirmationRequest{httpClient: httpClient, url: url}
}

// UpdateInfo fetches what the controller is being asked to confirm.
// Every call performs a fresh request; the server may legitimately
// change the answer between calls.
func (c *ConfirmationRequest) UpdateInfo(ctx context.Context) (*ConfirmationInfo, error) {
	var base model.ConfirmationBase
	if err := getJSON(ctx, c.httpClient, c.url, &base); err != nil {
		return nil, err
	}
	return &ConfirmationInfo{httpClient: c.httpClient, base: base}, nil
}

// Metadata fetches the confirmation and returns the metadata of all its
// chunks flattened into one list. Shorthand for UpdateInfo followed by
// ConfirmationInfo.Metadata; it performs its own fetch.
func (c *ConfirmationRequest) Metadata(ctx context.Context) ([]model.KeyValue, error) {
	info, err := c.UpdateInfo(ctx)
	if err != nil {
		return nil, err
	}
	return info.Metadata(), nil
}

// Confirm accepts the gate. The server moves the action forward and a
// later poll announces the deploymentBase.
func (c *ConfirmationRequest) Confirm(ctx context.Context, details ...string) error {
	return c.decide(ctx, model.DecisionConfirmed, 1, details)
}

// Decline rejects the gate. The server does not advance; the same
// confirmation is offered again on later polls.
func (c *ConfirmationRequest) Decline(ctx context.Context, details ...string) error {
	return c.decide(ctx, model.DecisionDenied, -1, details)
}

func (c *ConfirmationRequest) decide(ctx context.Context,
	decision model.ConfirmationDecision, code int, details []string) error {
	if !c.decided.CompareAndSwap(false, true) {
		return ErrAlreadyDecided
	}
	target, err := feedbackURL(c.url)
	if err != nil {
		return err
	}
	confirmation := model.Confirmation{
		Confirmation: decision,
		Code:         code,
		Details:      emptyIfNil(details),
	}
	return sendJSON(ctx, c.httpClient, http.MethodPost, target, confirmation)
}

// ConfirmationInfo is the resolved view of a pending confirmation: the
// action id and the deployment it gates.
type ConfirmationInfo struct {
	httpClient *http.Client
	base       model.ConfirmationBase
}

// ActionID returns the id of the gated action.
func (i *ConfirmationInfo) ActionID() string {
	return i.base.ID
}

// DownloadType returns the handling requirement for the download phase
// of the gated deployment.
func (i *ConfirmationInfo) DownloadType() string {
	return i.base.Confirmation.Download
}

// UpdateType returns the handling requirement for the update phase of
// the gated deployment.
func (i *ConfirmationInfo) UpdateType() string {
	return i.base.Confirmation.Update
}

// Chunks returns the chunks of the gated deployment.
func (i *ConfirmationInfo) Chunks() []Chunk {
	return wrapChunks(i.httpClient, i.base.Confirmation.Chunks)
}

// Metadata returns the metadata of all chunks flattened into one list,
// ordered by chunk and then by declaration within the chunk.
func (i *ConfirmationInfo) Metadata() []model.KeyValue {
	return flattenMetadata(i.base.Confirmation.Chunks)
}
