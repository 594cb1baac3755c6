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
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/mendersoftware/hawkbit-ddi-client/model"
)

// feedbackURL derives the feedback endpoint of an action resource: the
// query is dropped and a trailing "feedback" path segment is appended.
// Opaque or relative URLs cannot take a path segment and yield
// ErrNotHierarchicalURL.
func feedbackURL(actionURL string) (string, error) {
	u, err := url.Parse(actionURL)
	if err != nil {
		return "", errors.Wrap(err, "parse action url")
	}
	if !u.IsAbs() || u.Host == "" || u.Opaque != "" {
		return "", errors.Wrapf(ErrNotHierarchicalURL, "derive feedback url from %q", actionURL)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/feedback"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// sendDeploymentFeedback posts the execution status body shared by
// deployment and cancel actions.
func sendDeploymentFeedback(ctx context.Context, httpClient *http.Client,
	actionURL, id string, execution model.Execution, finished model.Finished,
	progress *model.Progress, details []string) error {
	target, err := feedbackURL(actionURL)
	if err != nil {
		return err
	}
	feedback := model.DeploymentFeedback{
		ID: id,
		Status: model.FeedbackStatus{
			Execution: execution,
			Result: model.FeedbackResult{
				Finished: finished,
				Progress: progress,
			},
			Details: emptyIfNil(details),
		},
	}
	return sendJSON(ctx, httpClient, http.MethodPost, target, feedback)
}

// emptyIfNil keeps detail lists serializing as [] rather than null.
func emptyIfNil(details []string) []string {
	if details == nil {
		return []string{}
	}
	return details
}
