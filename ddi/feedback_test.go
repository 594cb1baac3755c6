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
	"errors"
	"testing"
)

func TestFeedbackURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{
			name: "plain action url",
			in:   "https://h/t/c/deploymentBase/10",
			want: "https://h/t/c/deploymentBase/10/feedback",
		},
		{
			name: "query dropped",
			in:   "https://h/t/c/confirmationBase/5?x=1",
			want: "https://h/t/c/confirmationBase/5/feedback",
		},
		{
			name: "action hash dropped",
			in:   "https://hawkbit:8443/DEFAULT/controller/v1/dev/deploymentBase/10?c=-2129",
			want: "https://hawkbit:8443/DEFAULT/controller/v1/dev/deploymentBase/10/feedback",
		},
		{
			name: "trailing slash",
			in:   "https://h/t/c/cancelAction/7/",
			want: "https://h/t/c/cancelAction/7/feedback",
		},
		{
			name:    "opaque url",
			in:      "mailto:controller@example.com",
			wantErr: ErrNotHierarchicalURL,
		},
		{
			name:    "relative url",
			in:      "/deploymentBase/10",
			wantErr: ErrNotHierarchicalURL,
		},
		{
			name:    "missing host",
			in:      "https:///deploymentBase/10",
			wantErr: ErrNotHierarchicalURL,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := feedbackURL(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("feedbackURL(%q) err = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("feedbackURL(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("feedbackURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	t.Run("unparsable url", func(t *testing.T) {
		_, err := feedbackURL("http://bad url/deploymentBase/10")
		if err == nil {
			t.Fatal("expected a parse error")
		}
		if errors.Is(err, ErrNotHierarchicalURL) {
			t.Fatalf("parse failure reported as ErrNotHierarchicalURL: %v", err)
		}
	})
}

func TestEmptyIfNil(t *testing.T) {
	if got := emptyIfNil(nil); got == nil || len(got) != 0 {
		t.Errorf("emptyIfNil(nil) = %v, want empty slice", got)
	}
	details := []string{"kept"}
	if got := emptyIfNil(details); len(got) != 1 || got[0] != "kept" {
		t.Errorf("emptyIfNil = %v, want original slice", got)
	}
}
