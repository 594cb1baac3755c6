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
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mendersoftware/hawkbit-ddi-client/model"
)

// Reply is the outcome of one poll. Pending actions appear as lazy
// handles; obtaining a handle performs no request, and a reply with no
// links at all is the common idle case, not an error.
type Reply struct {
	reply      model.PollReply
	httpClient *http.Client
}

// PollingSleep returns the pause the server wants before the next poll.
// The wire format is HH:MM:SS; anything else, including a missing
// config block, yields ErrInvalidSleep so the caller can apply its own
// interval instead of failing the cycle.
func (r *Reply) PollingSleep() (time.Duration, error) {
	if r.reply.Config == nil {
		return 0, ErrInvalidSleep
	}
	return parseSleep(r.reply.Config.Polling.Sleep)
}

func parseSleep(sleep string) (time.Duration, error) {
	fields := strings.Split(sleep, ":")
	if len(fields) != 3 {
		return 0, ErrInvalidSleep
	}
	var total time.Duration
	for _, field := range fields {
		n, err := strconv.ParseUint(field, 10, 32)
		if err != nil {
			return 0, ErrInvalidSleep
		}
		total = total*60 + time.Duration(n)*time.Second
	}
	return total, nil
}

// DeploymentBase returns a handle on the deployment the server wants
// the controller to run, when the poll announced one.
func (r *Reply) DeploymentBase() (*DeploymentRequest, bool) {
	link := r.link(func(l *model.PollLinks) *model.Link { return l.DeploymentBase })
	if link == nil {
		return nil, false
	}
	return &DeploymentRequest{httpClient: r.httpClient, url: link.Href}, true
}

// ConfirmationBase returns a handle on the confirmation gating the next
// deployment, when the poll announced one.
func (r *Reply) ConfirmationBase() (*ConfirmationRequest, bool) {
	link := r.link(func(l *model.PollLinks) *model.Link { return l.ConfirmationBase })
	if link == nil {
		return nil, false
	}
	return newConfirmationRequest(r.httpClient, link.Href), true
}

// CancelAction returns a handle on a pending cancellation, when the
// poll announced one.
func (r *Reply) CancelAction() (*CancelRequest, bool) {
	link := r.link(func(l *model.PollLinks) *model.Link { return l.CancelAction })
	if link == nil {
		return nil, false
	}
	return &CancelRequest{httpClient: r.httpClient, url: link.Href}, true
}

// ConfigData returns a handle for uploading controller attributes, when
// the server requested them.
func (r *Reply) ConfigData() (*ConfigRequest, bool) {
	link := r.link(func(l *model.PollLinks) *model.Link { return l.ConfigData })
	if link == nil {
		return nil, false
	}
	return &ConfigRequest{httpClient: r.httpClient, url: link.Href}, true
}

func (r *Reply) link(pick func(*model.PollLinks) *model.Link) *model.Link {
	if r.reply.Links == nil {
		return nil
	}
	return pick(r.reply.Links)
}
