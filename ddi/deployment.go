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
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/mendersoftware/hawkbit-ddi-client/model"
)

// DeploymentRequest is a lazy handle on a deploymentBase resource.
type DeploymentRequest struct {
	httpClient *http.Client
	url        string
}

// Fetch retrieves the deployment. Every call performs a fresh request.
func (r *DeploymentRequest) Fetch(ctx context.Context) (*Deployment, error) {
	var base model.DeploymentBase
	if err := getJSON(ctx, r.httpClient, r.url, &base); err != nil {
		return nil, err
	}
	return &Deployment{
		httpClient: r.httpClient,
		url:        r.url,
		id:         base.ID,
		deployment: base.Deployment,
	}, nil
}

// Deployment is a software update the server wants the controller to
// run: an action id plus an ordered list of chunks. It is immutable;
// the server's view changes only through SendFeedback.
type Deployment struct {
	httpClient *http.Client
	url        string
	id         string
	deployment model.Deployment
}

// ActionID returns the id used in feedback for this deployment.
func (d *Deployment) ActionID() string {
	return d.id
}

// DownloadType returns the server's handling requirement for the
// download phase: forced, attempt or skip.
func (d *Deployment) DownloadType() string {
	return d.deployment.Download
}

// UpdateType returns the server's handling requirement for the update
// phase: forced, attempt or skip.
func (d *Deployment) UpdateType() string {
	return d.deployment.Update
}

// MaintenanceWindow returns available or unavailable, or the empty
// string when the deployment has no maintenance window.
func (d *Deployment) MaintenanceWindow() string {
	return d.deployment.MaintenanceWindow
}

// Chunks returns the deployment's chunks in the server's declaration
// order.
func (d *Deployment) Chunks() []Chunk {
	return wrapChunks(d.httpClient, d.deployment.Chunks)
}

// Metadata returns the metadata of all chunks flattened into one list,
// ordered by chunk and then by declaration within the chunk.
func (d *Deployment) Metadata() []model.KeyValue {
	return flattenMetadata(d.deployment.Chunks)
}

// SendFeedback reports the execution state of this deployment action.
// Reporting ExecutionClosed ends the action on the server; which
// Finished value accompanies it decides success or failure.
func (d *Deployment) SendFeedback(ctx context.Context,
	execution model.Execution, finished model.Finished, details ...string) error {
	return sendDeploymentFeedback(ctx, d.httpClient, d.url, d.id,
		execution, finished, nil, details)
}

// SendFeedbackWithProgress is SendFeedback with a cnt-of-of progress
// marker attached to the result.
func (d *Deployment) SendFeedbackWithProgress(ctx context.Context,
	execution model.Execution, finished model.Finished,
	cnt, of int, details ...string) error {
	progress := &model.Progress{Cnt: cnt, Of: of}
	return sendDeploymentFeedback(ctx, d.httpClient, d.url, d.id,
		execution, finished, progress, details)
}

// Chunk is a named, versioned group of artifacts within a deployment.
// A chunk without artifacts is valid and carries only metadata.
type Chunk struct {
	httpClient *http.Client
	chunk      model.Chunk
}

func (c Chunk) Part() string {
	return c.chunk.Part
}

func (c Chunk) Version() string {
	return c.chunk.Version
}

func (c Chunk) Name() string {
	return c.chunk.Name
}

// Metadata returns the chunk's metadata in declaration order.
func (c Chunk) Metadata() []model.KeyValue {
	return c.chunk.Metadata
}

// Artifacts returns the chunk's artifacts in declaration order.
func (c Chunk) Artifacts() []Artifact {
	artifacts := make([]Artifact, 0, len(c.chunk.Artifacts))
	for _, artifact := range c.chunk.Artifacts {
		artifacts = append(artifacts, Artifact{
			httpClient: c.httpClient,
			artifact:   artifact,
		})
	}
	return artifacts
}

func wrapChunks(httpClient *http.Client, chunks []model.Chunk) []Chunk {
	wrapped := make([]Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		wrapped = append(wrapped, Chunk{httpClient: httpClient, chunk: chunk})
	}
	return wrapped
}

func flattenMetadata(chunks []model.Chunk) []model.KeyValue {
	var metadata []model.KeyValue
	for _, chunk := range chunks {
		metadata = append(metadata, chunk.Metadata...)
	}
	return metadata
}

// Artifact is one downloadable file of a chunk.
type Artifact struct {
	httpClient *http.Client
	artifact   model.Artifact
}

func (a Artifact) Filename() string {
	return a.artifact.Filename
}

func (a Artifact) Size() int64 {
	return a.artifact.Size
}

// Digest returns the digest the server declared for the given algorithm.
func (a Artifact) Digest(typ ChecksumType) (string, bool) {
	var digest string
	switch typ {
	case ChecksumMD5:
		digest = a.artifact.Hashes.MD5
	case ChecksumSHA1:
		digest = a.artifact.Hashes.SHA1
	case ChecksumSHA256:
		digest = a.artifact.Hashes.SHA256
	}
	return digest, digest != ""
}

// DownloadURL returns the TLS download link when the server offers one,
// the plain HTTP variant otherwise, or the empty string when the
// artifact has no download link at all.
func (a Artifact) DownloadURL() string {
	if link := a.artifact.Links.Download; link != nil {
		return link.Href
	}
	if link := a.artifact.Links.DownloadHTTP; link != nil {
		return link.Href
	}
	return ""
}

// Download streams the artifact into w, verifying the strongest digest
// the server declared while the bytes pass through. It returns the
// algorithm that was checked; ChecksumNone means the artifact declared
// no digest at all and the download was accepted unverified, which
// callers should surface as a warning. On a mismatch the error is a
// *ChecksumError and w has already received the downloaded bytes.
func (a Artifact) Download(ctx context.Context, w io.Writer) (ChecksumType, error) {
	downloadURL := a.DownloadURL()
	if downloadURL == "" {
		return ChecksumNone, errors.Errorf("artifact %s has no download link", a.artifact.Filename)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return ChecksumNone, errors.Wrap(err, "create request")
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return ChecksumNone, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return ChecksumNone, err
	}

	typ, expected := a.strongestDigest()
	if typ == ChecksumNone {
		if _, err := io.Copy(w, resp.Body); err != nil {
			return ChecksumNone, errors.Wrap(err, "stream artifact")
		}
		return ChecksumNone, nil
	}
	if err := verifyCopy(w, resp.Body, typ, expected); err != nil {
		return typ, err
	}
	return typ, nil
}

// DownloadTo downloads the artifact into dir under its server-declared
// filename and returns the written path.
func (a Artifact) DownloadTo(ctx context.Context, dir string) (string, ChecksumType, error) {
	// keep the server from steering the file outside dir
	path := filepath.Join(dir, filepath.Base(a.artifact.Filename))
	f, err := os.Create(path)
	if err != nil {
		return "", ChecksumNone, errors.Wrap(err, "create artifact file")
	}
	typ, err := a.Download(ctx, f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = errors.Wrap(closeErr, "close artifact file")
	}
	if err != nil {
		return "", typ, err
	}
	return path, typ, nil
}

func (a Artifact) strongestDigest() (ChecksumType, string) {
	for _, typ := range checksumPreference {
		if digest, ok := a.Digest(typ); ok {
			return typ, digest
		}
	}
	return ChecksumNone, ""
}
