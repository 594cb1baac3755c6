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

package server

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/mendersoftware/hawkbit-ddi-client/model"
)

// maxRequestSize bounds feedback and configData bodies.
const maxRequestSize int64 = 1 << 20

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debugf("%-7s %-60s %d (%6d ms)",
			r.Method, r.URL.Path, ww.Status(), time.Since(start).Milliseconds())
	})
}

// authorize checks the tenant and, when the server has tokens
// configured, requires a matching Authorization header. A server with
// no tokens accepts anonymous controllers.
func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "tenant") != s.opts.Tenant {
			http.NotFound(w, r)
			return
		}
		if s.opts.GatewayToken == "" && len(s.opts.TargetTokens) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		authorization := r.Header.Get("Authorization")
		if s.opts.GatewayToken != "" &&
			authorization == "GatewayToken "+s.opts.GatewayToken {
			next.ServeHTTP(w, r)
			return
		}
		controllerID := chi.URLParam(r, "controllerID")
		if token, ok := s.opts.TargetTokens[controllerID]; ok &&
			authorization == "TargetToken "+token {
			next.ServeHTTP(w, r)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	})
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	controllerID := chi.URLParam(r, "controllerID")
	base := controllerBaseURL(r, s.opts.Tenant, controllerID)

	s.mu.Lock()
	dev := s.deviceLocked(controllerID)
	if s.opts.AutoAssignSize > 0 && !dev.autoAssigned && dev.action == nil {
		dev.autoAssigned = true
		id := s.scheduleLocked(dev, autoChunks(s.opts.AutoAssignSize))
		log.Infof("[%s] deployment %s auto-assigned", controllerID, id)
	}

	links := &model.PollLinks{}
	if !dev.attributesUploaded {
		links.ConfigData = &model.Link{Href: base + "/configData"}
	}
	if dev.cancel != nil {
		links.CancelAction = &model.Link{Href: base + "/cancelAction/" + dev.cancel.id}
	} else if act := dev.action; act != nil && !act.closed {
		if act.waiting {
			links.ConfirmationBase = &model.Link{
				Href: actionHref(base, "confirmationBase", act.id),
			}
		} else {
			links.DeploymentBase = &model.Link{
				Href: actionHref(base, "deploymentBase", act.id),
			}
		}
	}
	s.mu.Unlock()

	reply := model.PollReply{
		Config: &model.PollConfig{
			Polling: model.Polling{Sleep: s.opts.PollingSleep},
		},
	}
	if *links != (model.PollLinks{}) {
		reply.Links = links
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleDeploymentBase(w http.ResponseWriter, r *http.Request) {
	controllerID := chi.URLParam(r, "controllerID")
	actionID := chi.URLParam(r, "actionID")
	base := controllerBaseURL(r, s.opts.Tenant, controllerID)

	s.mu.Lock()
	defer s.mu.Unlock()
	act := s.currentActionLocked(controllerID, actionID)
	if act == nil || act.closed || act.waiting {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, model.DeploymentBase{
		ID: act.id,
		Deployment: model.Deployment{
			Download: act.download,
			Update:   act.update,
			Chunks:   renderChunks(base, act),
		},
	})
}

func (s *Server) handleDeploymentFeedback(w http.ResponseWriter, r *http.Request) {
	controllerID := chi.URLParam(r, "controllerID")
	actionID := chi.URLParam(r, "actionID")

	var feedback model.DeploymentFeedback
	if err := decodeJSON(w, r, &feedback); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if feedback.ID != actionID {
		http.Error(w, "action id mismatch", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	act := s.currentActionLocked(controllerID, actionID)
	if act == nil {
		http.NotFound(w, r)
		return
	}
	if act.closed {
		w.WriteHeader(http.StatusGone)
		return
	}
	act.feedback = append(act.feedback, feedback)
	if feedback.Status.Execution == model.ExecutionClosed {
		act.closed = true
		act.result = feedback.Status.Result.Finished
		log.Infof("[%s] action %s closed: %s",
			controllerID, actionID, feedback.Status.Result.Finished)
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleConfirmationBase(w http.ResponseWriter, r *http.Request) {
	controllerID := chi.URLParam(r, "controllerID")
	actionID := chi.URLParam(r, "actionID")
	base := controllerBaseURL(r, s.opts.Tenant, controllerID)

	s.mu.Lock()
	defer s.mu.Unlock()
	act := s.currentActionLocked(controllerID, actionID)
	if act == nil || !act.waiting {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, model.ConfirmationBase{
		ID: act.id,
		Confirmation: model.Deployment{
			Download: act.download,
			Update:   act.update,
			Chunks:   renderChunks(base, act),
		},
	})
}

func (s *Server) handleConfirmationFeedback(w http.ResponseWriter, r *http.Request) {
	controllerID := chi.URLParam(r, "controllerID")
	actionID := chi.URLParam(r, "actionID")

	var confirmation model.Confirmation
	if err := decodeJSON(w, r, &confirmation); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	act := s.currentActionLocked(controllerID, actionID)
	if act == nil || !act.waiting {
		http.NotFound(w, r)
		return
	}
	switch confirmation.Confirmation {
	case model.DecisionConfirmed:
		act.waiting = false
		log.Infof("[%s] action %s confirmed", controllerID, actionID)
	case model.DecisionDenied:
		// gate stays closed, the next polls keep offering it
		log.Infof("[%s] action %s denied", controllerID, actionID)
	default:
		http.Error(w, "unknown confirmation decision", http.StatusBadRequest)
		return
	}
	act.confirmations = append(act.confirmations, confirmation)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleCancelAction(w http.ResponseWriter, r *http.Request) {
	controllerID := chi.URLParam(r, "controllerID")
	actionID := chi.URLParam(r, "actionID")

	s.mu.Lock()
	defer s.mu.Unlock()
	dev := s.devices[controllerID]
	if dev == nil || dev.cancel == nil || dev.cancel.id != actionID {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, model.CancelBase{
		ID:           dev.cancel.id,
		CancelAction: model.CancelAction{StopID: dev.cancel.stopID},
	})
}

func (s *Server) handleCancelFeedback(w http.ResponseWriter, r *http.Request) {
	controllerID := chi.URLParam(r, "controllerID")
	actionID := chi.URLParam(r, "actionID")

	var feedback model.DeploymentFeedback
	if err := decodeJSON(w, r, &feedback); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	dev := s.devices[controllerID]
	if dev == nil || dev.cancel == nil || dev.cancel.id != actionID {
		http.NotFound(w, r)
		return
	}
	dev.cancelFeedback = append(dev.cancelFeedback, feedback)
	if feedback.Status.Execution == model.ExecutionClosed {
		if feedback.Status.Result.Finished == model.FinishedSuccess && dev.action != nil {
			dev.action.closed = true
			dev.action.result = model.FinishedNone
			log.Infof("[%s] action %s canceled", controllerID, dev.cancel.stopID)
		}
		dev.cancel = nil
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleConfigData(w http.ResponseWriter, r *http.Request) {
	controllerID := chi.URLParam(r, "controllerID")

	var configData model.ConfigData
	if err := decodeJSON(w, r, &configData); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	dev := s.deviceLocked(controllerID)
	switch configData.Mode {
	case model.ConfigModeMerge, "":
		for k, v := range configData.Data {
			dev.attributes[k] = v
		}
	case model.ConfigModeReplace:
		dev.attributes = make(map[string]string, len(configData.Data))
		for k, v := range configData.Data {
			dev.attributes[k] = v
		}
	case model.ConfigModeRemove:
		for k := range configData.Data {
			delete(dev.attributes, k)
		}
	default:
		http.Error(w, "unknown config mode", http.StatusBadRequest)
		return
	}
	dev.attributesUploaded = true
	dev.configLog = append(dev.configLog, configData)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	controllerID := chi.URLParam(r, "controllerID")
	filename := chi.URLParam(r, "filename")
	moduleID, err := strconv.Atoi(chi.URLParam(r, "moduleID"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	body, ok := s.artifactBodyLocked(controllerID, moduleID, filename)
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}

// artifactBodyLocked resolves a download. Artifacts of gated or closed
// actions are not downloadable.
func (s *Server) artifactBodyLocked(controllerID string, moduleID int, filename string) ([]byte, bool) {
	dev := s.devices[controllerID]
	if dev == nil || dev.action == nil || dev.action.closed || dev.action.waiting {
		return nil, false
	}
	chunks := dev.action.chunks
	if moduleID < 1 || moduleID > len(chunks) {
		return nil, false
	}
	for _, artifact := range chunks[moduleID-1].meta.Artifacts {
		if artifact.Filename == filename {
			return artifact.Body, true
		}
	}
	return nil, false
}

func (s *Server) currentActionLocked(controllerID, actionID string) *action {
	dev := s.devices[controllerID]
	if dev == nil || dev.action == nil || dev.action.id != actionID {
		return nil
	}
	return dev.action
}

// renderChunks builds the wire form of an action's chunks with download
// links anchored at the request's host.
func renderChunks(base string, act *action) []model.Chunk {
	chunks := make([]model.Chunk, 0, len(act.chunks))
	for i, sc := range act.chunks {
		chunk := model.Chunk{
			Part:     sc.meta.Part,
			Version:  sc.meta.Version,
			Name:     sc.meta.Name,
			Metadata: sc.meta.Metadata,
		}
		for j, artifact := range sc.meta.Artifacts {
			href := fmt.Sprintf("%s/softwareModules/%d/artifacts/%s",
				base, i+1, artifact.Filename)
			chunk.Artifacts = append(chunk.Artifacts, model.Artifact{
				Filename: artifact.Filename,
				Hashes:   sc.hashes[j],
				Size:     int64(len(artifact.Body)),
				Links: model.ArtifactLinks{
					Download:     &model.Link{Href: href},
					DownloadHTTP: &model.Link{Href: href},
				},
			})
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

func controllerBaseURL(r *http.Request, tenant, controllerID string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/" + tenant + "/controller/v1/" + controllerID
}

// actionHref appends the c= link hash real servers attach to action
// links.
func actionHref(base, resource, actionID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(actionID))
	return fmt.Sprintf("%s/%s/%s?c=%d", base, resource, actionID, h.Sum32())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/hal+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("encode response: %v", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestSize))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}
