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

// Package server implements an in-memory hawkBit DDI server: enough of
// the protocol for integration tests and local simulator runs, plus a
// control API to schedule actions and inspect what controllers report.
package server

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/mendersoftware/hawkbit-ddi-client/model"
)

// Scheduling states reported by ActionStatus.
const (
	StateNone                = "none"
	StateWaitingConfirmation = "waitingConfirmation"
	StateRunning             = "running"
	StateClosed              = "closed"
)

// Options configures the server. The zero value serves tenant "default"
// with anonymous access and a 30 second polling sleep.
type Options struct {
	Tenant string

	// GatewayToken, when set, is accepted for every controller.
	// TargetTokens maps controller ids to their individual tokens.
	// When both are empty, anonymous access is allowed.
	GatewayToken string
	TargetTokens map[string]string

	// PollingSleep is the sleep returned in every poll reply, in the
	// wire format HH:MM:SS.
	PollingSleep string

	// RequireConfirmation gates every scheduled deployment behind a
	// confirmation before its deploymentBase becomes visible.
	RequireConfirmation bool

	// AutoAssignSize, when positive, schedules a single-artifact
	// deployment of that many bytes for every controller on its first
	// poll.
	AutoAssignSize int64
}

// Artifact is one file served as part of a scheduled deployment. The
// digests the protocol requires are computed at schedule time.
type Artifact struct {
	Filename string
	Body     []byte
}

// Chunk describes one chunk of a scheduled deployment.
type Chunk struct {
	Part      string
	Version   string
	Name      string
	Metadata  []model.KeyValue
	Artifacts []Artifact
}

type scheduledChunk struct {
	meta   Chunk
	hashes []model.Hashes
}

type action struct {
	id            string
	download      string
	update        string
	chunks        []scheduledChunk
	waiting       bool
	closed        bool
	result        model.Finished
	feedback      []model.DeploymentFeedback
	confirmations []model.Confirmation
}

type cancelAction struct {
	id     string
	stopID string
}

type device struct {
	action             *action
	cancel             *cancelAction
	cancelFeedback     []model.DeploymentFeedback
	autoAssigned       bool
	attributes         map[string]string
	attributesUploaded bool
	configLog          []model.ConfigData
}

// Server is an in-memory DDI server. All state lives behind one mutex;
// it is meant for tests and simulations, not production fleets.
type Server struct {
	opts   Options
	router chi.Router

	mu      sync.Mutex
	devices map[string]*device
}

// New creates a Server with its routes mounted under
// /{tenant}/controller/v1/{controllerID}.
func New(opts Options) *Server {
	if opts.Tenant == "" {
		opts.Tenant = "default"
	}
	if opts.PollingSleep == "" {
		opts.PollingSleep = "00:00:30"
	}
	s := &Server{
		opts:    opts,
		devices: map[string]*device{},
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(logRequests)
	router.Route("/{tenant}/controller/v1/{controllerID}", func(r chi.Router) {
		r.Use(s.authorize)
		r.Get("/", s.handlePoll)
		r.Put("/configData", s.handleConfigData)
		r.Get("/deploymentBase/{actionID}", s.handleDeploymentBase)
		r.Post("/deploymentBase/{actionID}/feedback", s.handleDeploymentFeedback)
		r.Get("/confirmationBase/{actionID}", s.handleConfirmationBase)
		r.Post("/confirmationBase/{actionID}/feedback", s.handleConfirmationFeedback)
		r.Get("/cancelAction/{actionID}", s.handleCancelAction)
		r.Post("/cancelAction/{actionID}/feedback", s.handleCancelFeedback)
		r.Get("/softwareModules/{moduleID}/artifacts/{filename}", s.handleArtifact)
	})
	s.router = router
	return s
}

// Handler returns the HTTP handler serving the DDI routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ScheduleDeployment schedules a deployment for the controller,
// replacing any current action, and returns the new action id. With
// Options.RequireConfirmation the action starts gated behind a
// confirmation.
func (s *Server) ScheduleDeployment(controllerID string, chunks ...Chunk) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	dev := s.deviceLocked(controllerID)
	id := s.scheduleLocked(dev, chunks)
	log.Infof("[%s] deployment %s scheduled", controllerID, id)
	return id
}

// ScheduleCancel asks the controller to stop its current action. It
// reports false when the controller has no action to cancel.
func (s *Server) ScheduleCancel(controllerID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dev := s.devices[controllerID]
	if dev == nil || dev.action == nil || dev.action.closed {
		return "", false
	}
	dev.cancel = &cancelAction{
		id:     uuid.NewString(),
		stopID: dev.action.id,
	}
	log.Infof("[%s] cancel %s scheduled for action %s",
		controllerID, dev.cancel.id, dev.action.id)
	return dev.cancel.id, true
}

// ActionStatus reports the scheduling state of the controller's current
// action and, once closed, its result.
func (s *Server) ActionStatus(controllerID string) (string, model.Finished) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dev := s.devices[controllerID]
	if dev == nil || dev.action == nil {
		return StateNone, ""
	}
	switch {
	case dev.action.closed:
		return StateClosed, dev.action.result
	case dev.action.waiting:
		return StateWaitingConfirmation, ""
	default:
		return StateRunning, ""
	}
}

// Feedback returns every deployment feedback the controller posted for
// its current action, oldest first.
func (s *Server) Feedback(controllerID string) []model.DeploymentFeedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	dev := s.devices[controllerID]
	if dev == nil || dev.action == nil {
		return nil
	}
	return append([]model.DeploymentFeedback(nil), dev.action.feedback...)
}

// Confirmations returns every confirmation decision the controller
// posted for its current action, oldest first.
func (s *Server) Confirmations(controllerID string) []model.Confirmation {
	s.mu.Lock()
	defer s.mu.Unlock()
	dev := s.devices[controllerID]
	if dev == nil || dev.action == nil {
		return nil
	}
	return append([]model.Confirmation(nil), dev.action.confirmations...)
}

// CancelFeedback returns the feedback posted for the controller's
// cancellations, oldest first. The log survives the acknowledgement
// that retires the cancel itself.
func (s *Server) CancelFeedback(controllerID string) []model.DeploymentFeedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	dev := s.devices[controllerID]
	if dev == nil {
		return nil
	}
	return append([]model.DeploymentFeedback(nil), dev.cancelFeedback...)
}

// Attributes returns the controller attributes accumulated from
// configData uploads.
func (s *Server) Attributes(controllerID string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	dev := s.devices[controllerID]
	if dev == nil {
		return nil
	}
	attributes := make(map[string]string, len(dev.attributes))
	for k, v := range dev.attributes {
		attributes[k] = v
	}
	return attributes
}

// ConfigUploads returns the raw configData bodies the controller sent,
// oldest first.
func (s *Server) ConfigUploads(controllerID string) []model.ConfigData {
	s.mu.Lock()
	defer s.mu.Unlock()
	dev := s.devices[controllerID]
	if dev == nil {
		return nil
	}
	return append([]model.ConfigData(nil), dev.configLog...)
}

func (s *Server) deviceLocked(controllerID string) *device {
	dev := s.devices[controllerID]
	if dev == nil {
		dev = &device{attributes: map[string]string{}}
		s.devices[controllerID] = dev
		log.Infof("[%s] first contact", controllerID)
	}
	return dev
}

func (s *Server) scheduleLocked(dev *device, chunks []Chunk) string {
	scheduled := make([]scheduledChunk, 0, len(chunks))
	for _, chunk := range chunks {
		sc := scheduledChunk{meta: chunk}
		for _, artifact := range chunk.Artifacts {
			sc.hashes = append(sc.hashes, hashesOf(artifact.Body))
		}
		scheduled = append(scheduled, sc)
	}
	dev.cancel = nil
	dev.action = &action{
		id:       uuid.NewString(),
		download: "forced",
		update:   "forced",
		chunks:   scheduled,
		waiting:  s.opts.RequireConfirmation,
	}
	return dev.action.id
}

func hashesOf(body []byte) model.Hashes {
	md5Sum := md5.Sum(body)
	sha1Sum := sha1.Sum(body)
	sha256Sum := sha256.Sum256(body)
	return model.Hashes{
		MD5:    hex.EncodeToString(md5Sum[:]),
		SHA1:   hex.EncodeToString(sha1Sum[:]),
		SHA256: hex.EncodeToString(sha256Sum[:]),
	}
}

func autoChunks(size int64) []Chunk {
	body := make([]byte, size)
	for i := range body {
		body[i] = byte(i)
	}
	return []Chunk{{
		Part:      "os",
		Version:   "1.0.0",
		Name:      "auto",
		Artifacts: []Artifact{{Filename: "image.swu", Body: body}},
	}}
}
