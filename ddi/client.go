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

// Package ddi implements the device side of the hawkBit Direct Device
// Integration API: polling for pending actions, deployment and
// confirmation handling, artifact downloads with digest verification,
// and action feedback.
package ddi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/mendersoftware/hawkbit-ddi-client/model"
)

// Authorization selects the Authorization header a Client attaches to
// every request. TargetToken, GatewayToken and NoAuth are the complete
// set of schemes the DDI API accepts.
type Authorization interface {
	// headerValue returns the full Authorization header value, or the
	// empty string when no header is to be sent.
	headerValue() (string, error)
}

// TargetToken authenticates with the security token of a single target.
type TargetToken string

func (t TargetToken) headerValue() (string, error) {
	return tokenHeader("TargetToken", string(t))
}

// GatewayToken authenticates with a token shared by every target behind
// a gateway.
type GatewayToken string

func (t GatewayToken) headerValue() (string, error) {
	return tokenHeader("GatewayToken", string(t))
}

// NoAuth sends no Authorization header, for servers that accept
// anonymous controllers.
type NoAuth struct{}

func (NoAuth) headerValue() (string, error) {
	return "", nil
}

func tokenHeader(scheme, token string) (string, error) {
	if !validHeaderValue(token) {
		return "", errors.Wrap(ErrInvalidToken, scheme)
	}
	return scheme + " " + token, nil
}

// validHeaderValue reports whether s can travel as an HTTP header value:
// no control bytes other than horizontal tab.
func validHeaderValue(s string) bool {
	for i := 0; i < len(s); i++ {
		if b := s[i]; (b < 0x20 && b != '\t') || b == 0x7f {
			return false
		}
	}
	return true
}

// authTransport installs the Authorization header on every request
// passing through it.
type authTransport struct {
	next          http.RoundTripper
	authorization string
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", t.authorization)
	return t.next.RoundTrip(clone)
}

// Client talks to one hawkBit server on behalf of one controller. It is
// immutable after New and safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the controller identified by tenant and
// controllerID on the server at serverURL. The chosen Authorization is
// attached to every request the Client and its derived handles make.
func New(serverURL, tenant, controllerID string, auth Authorization) (*Client, error) {
	return NewWithClient(serverURL, tenant, controllerID, auth, nil)
}

// NewWithClient is New with a caller-supplied http.Client carrying
// custom TLS settings, timeouts or proxies. The supplied client is not
// modified; its transport is wrapped to attach the Authorization header.
func NewWithClient(serverURL, tenant, controllerID string,
	auth Authorization, httpClient *http.Client) (*Client, error) {
	if auth == nil {
		return nil, errors.New("authorization is required, use NoAuth for anonymous access")
	}
	authorization, err := auth.headerValue()
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(serverURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse server url")
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, errors.Errorf("server url %q is not absolute", serverURL)
	}
	base = base.JoinPath(tenant, "controller", "v1", controllerID)
	base.RawQuery = ""
	base.Fragment = ""

	client := &http.Client{}
	if httpClient != nil {
		clientCopy := *httpClient
		client = &clientCopy
	}
	if authorization != "" {
		next := client.Transport
		if next == nil {
			next = http.DefaultTransport
		}
		client.Transport = &authTransport{next: next, authorization: authorization}
	}

	return &Client{
		baseURL:    base.String(),
		httpClient: client,
	}, nil
}

// BaseURL returns the controller's resolved base resource URL,
// {server}/{tenant}/controller/v1/{controllerID}.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Poll asks the server what the controller should do now. The returned
// Reply carries the polling cadence the server wants and links to the
// actions currently pending; the links are resolved lazily by the
// handles Reply exposes, not by Poll itself.
func (c *Client) Poll(ctx context.Context) (*Reply, error) {
	var reply model.PollReply
	if err := getJSON(ctx, c.httpClient, c.baseURL, &reply); err != nil {
		return nil, err
	}
	return &Reply{reply: reply, httpClient: c.httpClient}, nil
}
