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

// Package simulator runs simulated DDI controllers against a hawkBit
// server: each device polls, answers confirmations, downloads and
// verifies artifacts, and reports feedback, the way a real controller
// would.
package simulator

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mendersoftware/hawkbit-ddi-client/ddi"
	"github.com/mendersoftware/hawkbit-ddi-client/model"
)

// Confirmation policies a Device can run with.
const (
	ConfirmModeConfirm = "confirm"
	ConfirmModeDeny    = "deny"
	ConfirmModeIgnore  = "ignore"
)

// Device is one simulated controller.
type Device struct {
	ControllerID string
	Index        int64
	Config       *model.RunConfig
	client       *ddi.Client
}

// NewDevice creates the device with fleet index index. The controller
// id is derived from the configured prefix and the index.
func NewDevice(config *model.RunConfig, index int64) (*Device, error) {
	switch config.ConfirmMode {
	case ConfirmModeConfirm, ConfirmModeDeny, ConfirmModeIgnore:
	default:
		return nil, errors.Errorf("unknown confirm mode %q", config.ConfirmMode)
	}
	auth, err := authorizationFor(config)
	if err != nil {
		return nil, err
	}

	controllerID := fmt.Sprintf("%s-%08x", config.ControllerIDPrefix, index)
	httpClient := &http.Client{}
	if config.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	client, err := ddi.NewWithClient(config.ServerURL, config.Tenant,
		controllerID, auth, httpClient)
	if err != nil {
		return nil, err
	}

	return &Device{
		ControllerID: controllerID,
		Index:        index,
		Config:       config,
		client:       client,
	}, nil
}

func authorizationFor(config *model.RunConfig) (ddi.Authorization, error) {
	switch {
	case config.TargetToken != "" && config.GatewayToken != "":
		return nil, errors.New("target token and gateway token are mutually exclusive")
	case config.TargetToken != "":
		return ddi.TargetToken(config.TargetToken), nil
	case config.GatewayToken != "":
		return ddi.GatewayToken(config.GatewayToken), nil
	default:
		return ddi.NoAuth{}, nil
	}
}

// Run polls until ctx is done, pausing between cycles for as long as
// the server asked.
func (d *Device) Run(ctx context.Context) error {
	for {
		interval := d.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// RunOnce performs one poll cycle, handles everything the server
// announced, and returns the pause before the next cycle.
func (d *Device) RunOnce(ctx context.Context) time.Duration {
	start := time.Now()
	reply, err := d.client.Poll(ctx)
	if err != nil {
		pollsTotal.WithLabelValues(outcomeError).Inc()
		log.Errorf("[%s] %s", d.ControllerID, err)
		return d.Config.DefaultSleep
	}
	pollsTotal.WithLabelValues(outcomeOK).Inc()
	pollDuration.Observe(time.Since(start).Seconds())
	log.Debugf("[%s] %-40s ok (%6d ms)",
		d.ControllerID, "poll", time.Since(start).Milliseconds())

	if request, ok := reply.ConfigData(); ok {
		d.sendAttributes(ctx, request)
	}
	if request, ok := reply.CancelAction(); ok {
		d.handleCancel(ctx, request)
	}
	if request, ok := reply.ConfirmationBase(); ok {
		d.handleConfirmation(ctx, request)
	}
	if request, ok := reply.DeploymentBase(); ok {
		d.handleDeployment(ctx, request)
	}

	return d.interval(reply)
}

// interval picks the pause before the next poll: a configured fixed
// interval wins, then the server's sleep, then the configured default
// when the server sent none or an invalid one.
func (d *Device) interval(reply *ddi.Reply) time.Duration {
	if d.Config.PollInterval > 0 {
		return d.Config.PollInterval
	}
	sleep, err := reply.PollingSleep()
	if err != nil {
		log.Warnf("[%s] %s, falling back to %s",
			d.ControllerID, err, d.Config.DefaultSleep)
		return d.Config.DefaultSleep
	}
	return sleep
}

// sendAttributes answers a configData request with the configured
// attributes, in the form key:value1|value2 with the value picked by
// device index.
func (d *Device) sendAttributes(ctx context.Context, request *ddi.ConfigRequest) {
	data := map[string]string{}
	for _, attribute := range d.Config.Attributes {
		parts := strings.SplitN(attribute, ":", 2)
		if len(parts) < 2 {
			continue
		}
		values := strings.Split(parts[1], "|")
		data[parts[0]] = values[int(d.Index)%len(values)]
	}

	start := time.Now()
	if err := request.Upload(ctx, model.ConfigModeMerge, data); err != nil {
		log.Errorf("[%s] %s", d.ControllerID, err)
		return
	}
	configUploads.Inc()
	log.Debugf("[%s] %-40s ok (%6d ms)",
		d.ControllerID, "config-data", time.Since(start).Milliseconds())
}

func (d *Device) handleCancel(ctx context.Context, request *ddi.CancelRequest) {
	cancel, err := request.Fetch(ctx)
	if err != nil {
		log.Errorf("[%s] %s", d.ControllerID, err)
		return
	}
	actionsTotal.WithLabelValues("cancel").Inc()
	log.Infof("[%s] cancel %s stops action %s",
		d.ControllerID, cancel.ActionID(), cancel.StopID())

	err = cancel.SendFeedback(ctx, model.ExecutionClosed, model.FinishedSuccess,
		"action stopped")
	if err != nil {
		log.Errorf("[%s] %s", d.ControllerID, err)
		return
	}
	feedbackTotal.WithLabelValues(string(model.ExecutionClosed)).Inc()
}

func (d *Device) handleConfirmation(ctx context.Context, request *ddi.ConfirmationRequest) {
	info, err := request.UpdateInfo(ctx)
	if err != nil {
		log.Errorf("[%s] %s", d.ControllerID, err)
		return
	}
	actionsTotal.WithLabelValues("confirmation").Inc()
	log.Infof("[%s] confirmation pending for action %s (%d chunks)",
		d.ControllerID, info.ActionID(), len(info.Chunks()))

	var decision model.ConfirmationDecision
	switch d.Config.ConfirmMode {
	case ConfirmModeConfirm:
		decision = model.DecisionConfirmed
		err = request.Confirm(ctx, "confirmed by simulator")
	case ConfirmModeDeny:
		decision = model.DecisionDenied
		err = request.Decline(ctx, "denied by simulator")
	default:
		// the gate stays pending until an operator decides
		return
	}
	if err != nil {
		log.Errorf("[%s] %s", d.ControllerID, err)
		return
	}
	confirmationsTotal.WithLabelValues(string(decision)).Inc()
	log.Debugf("[%s] %-40s ok", d.ControllerID, "confirmation-"+string(decision))
}

func (d *Device) handleDeployment(ctx context.Context, request *ddi.DeploymentRequest) {
	deployment, err := request.Fetch(ctx)
	if err != nil {
		log.Errorf("[%s] %s", d.ControllerID, err)
		return
	}
	actionsTotal.WithLabelValues("deployment").Inc()
	log.Infof("[%s] deployment %s: download=%s update=%s chunks=%d",
		d.ControllerID, deployment.ActionID(), deployment.DownloadType(),
		deployment.UpdateType(), len(deployment.Chunks()))

	err = deployment.SendFeedback(ctx, model.ExecutionProceeding,
		model.FinishedNone, "deployment started")
	if err != nil {
		log.Errorf("[%s] %s", d.ControllerID, err)
		return
	}
	feedbackTotal.WithLabelValues(string(model.ExecutionProceeding)).Inc()

	chunks := deployment.Chunks()
	for i, chunk := range chunks {
		for _, artifact := range chunk.Artifacts() {
			if err := d.fetchArtifact(ctx, artifact); err != nil {
				err = deployment.SendFeedback(ctx, model.ExecutionClosed,
					model.FinishedFailure, err.Error())
				if err != nil {
					log.Errorf("[%s] %s", d.ControllerID, err)
					return
				}
				feedbackTotal.WithLabelValues(string(model.ExecutionClosed)).Inc()
				return
			}
		}
		err = deployment.SendFeedbackWithProgress(ctx, model.ExecutionProceeding,
			model.FinishedNone, i+1, len(chunks), "downloaded chunk "+chunk.Name())
		if err != nil {
			log.Errorf("[%s] %s", d.ControllerID, err)
		} else {
			feedbackTotal.WithLabelValues(string(model.ExecutionProceeding)).Inc()
		}
	}

	err = deployment.SendFeedback(ctx, model.ExecutionDownloaded, model.FinishedNone)
	if err != nil {
		log.Errorf("[%s] %s", d.ControllerID, err)
	} else {
		feedbackTotal.WithLabelValues(string(model.ExecutionDownloaded)).Inc()
	}

	// simulated installation
	d.pause(ctx)

	err = deployment.SendFeedback(ctx, model.ExecutionClosed, model.FinishedSuccess)
	if err != nil {
		log.Errorf("[%s] %s", d.ControllerID, err)
		return
	}
	feedbackTotal.WithLabelValues(string(model.ExecutionClosed)).Inc()
	log.Infof("[%s] deployment %s succeeded", d.ControllerID, deployment.ActionID())
}

// fetchArtifact downloads one artifact, into the download directory
// when one is configured, discarding the bytes otherwise.
func (d *Device) fetchArtifact(ctx context.Context, artifact ddi.Artifact) error {
	start := time.Now()
	var (
		typ ddi.ChecksumType
		err error
	)
	if d.Config.DownloadDir != "" {
		_, typ, err = artifact.DownloadTo(ctx, d.Config.DownloadDir)
	} else {
		typ, err = artifact.Download(ctx, io.Discard)
	}
	if err != nil {
		var checksumErr *ddi.ChecksumError
		if errors.As(err, &checksumErr) {
			checksumFailures.Inc()
		}
		log.Errorf("[%s] %s", d.ControllerID, err)
		return err
	}
	if typ == ddi.ChecksumNone {
		log.Warnf("[%s] artifact %s declares no digest, accepted unverified",
			d.ControllerID, artifact.Filename())
	}
	downloadBytes.Add(float64(artifact.Size()))
	log.Debugf("[%s] %-40s %s (%6d ms)", d.ControllerID,
		"artifact "+artifact.Filename(), typ, time.Since(start).Milliseconds())
	return nil
}

func (d *Device) pause(ctx context.Context) {
	if d.Config.DeploymentTime <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d.Config.DeploymentTime):
	}
}
