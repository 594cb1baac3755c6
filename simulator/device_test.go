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

package simulator

import (
	"context"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/mendersoftware/hawkbit-ddi-client/model"
	"github.com/mendersoftware/hawkbit-ddi-client/server"
)

func newTestServer(t *testing.T, opts server.Options) (*server.Server, *httptest.Server) {
	t.Helper()
	srv := server.New(opts)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func fleetConfig(url string) *model.RunConfig {
	return &model.RunConfig{
		Count:              1,
		ServerURL:          url,
		Tenant:             "default",
		ControllerIDPrefix: "sim",
		DefaultSleep:       5 * time.Second,
		ConfirmMode:        ConfirmModeConfirm,
	}
}

func TestNewDevice(t *testing.T) {
	config := fleetConfig("http://localhost:8080")

	device, err := NewDevice(config, 0)
	if err != nil {
		t.Fatal(err)
	}
	if device.ControllerID != "sim-00000000" {
		t.Fatalf("unexpected controller id %q", device.ControllerID)
	}

	device, err = NewDevice(config, 0xff)
	if err != nil {
		t.Fatal(err)
	}
	if device.ControllerID != "sim-000000ff" {
		t.Fatalf("unexpected controller id %q", device.ControllerID)
	}

	t.Run("UnknownConfirmMode", func(t *testing.T) {
		bad := fleetConfig("http://localhost:8080")
		bad.ConfirmMode = "auto"
		if _, err := NewDevice(bad, 0); err == nil {
			t.Fatal("expected an unknown confirm mode to be rejected")
		}
	})

	t.Run("ConflictingTokens", func(t *testing.T) {
		bad := fleetConfig("http://localhost:8080")
		bad.TargetToken = "aaaa"
		bad.GatewayToken = "bbbb"
		if _, err := NewDevice(bad, 0); err == nil {
			t.Fatal("expected conflicting tokens to be rejected")
		}
	})

	t.Run("RelativeServerURL", func(t *testing.T) {
		bad := fleetConfig("/no-scheme")
		if _, err := NewDevice(bad, 0); err == nil {
			t.Fatal("expected a relative server url to be rejected")
		}
	})
}

func TestRunOnceDeployment(t *testing.T) {
	srv, ts := newTestServer(t, server.Options{})
	config := fleetConfig(ts.URL)
	config.Attributes = []string{"device_type:raspberrypi4|beaglebone", "region:emea"}

	device, err := NewDevice(config, 0)
	if err != nil {
		t.Fatal(err)
	}
	actionID := srv.ScheduleDeployment(device.ControllerID,
		server.Chunk{
			Part:    "os",
			Version: "1.2.0",
			Name:    "core-image",
			Artifacts: []server.Artifact{
				{Filename: "rootfs.img", Body: []byte("rootfs contents")},
			},
		},
		server.Chunk{Part: "bApp", Version: "3.4", Name: "bundle"},
	)

	interval := device.RunOnce(context.Background())
	if interval != 30*time.Second {
		t.Fatalf("expected the server's 30s sleep, got %s", interval)
	}

	state, result := srv.ActionStatus(device.ControllerID)
	if state != server.StateClosed || result != model.FinishedSuccess {
		t.Fatalf("unexpected action state %s/%s", state, result)
	}

	attributes := srv.Attributes(device.ControllerID)
	if attributes["device_type"] != "raspberrypi4" {
		t.Fatalf("unexpected device_type %q", attributes["device_type"])
	}
	if attributes["region"] != "emea" {
		t.Fatalf("unexpected region %q", attributes["region"])
	}

	feedback := srv.Feedback(device.ControllerID)
	var executions []model.Execution
	for _, entry := range feedback {
		if entry.ID != actionID {
			t.Fatalf("feedback for action %s, expected %s", entry.ID, actionID)
		}
		executions = append(executions, entry.Status.Execution)
	}
	expected := []model.Execution{
		model.ExecutionProceeding,
		model.ExecutionProceeding,
		model.ExecutionProceeding,
		model.ExecutionDownloaded,
		model.ExecutionClosed,
	}
	if !reflect.DeepEqual(executions, expected) {
		t.Fatalf("unexpected feedback sequence %v", executions)
	}
	if p := feedback[1].Status.Result.Progress; p == nil || p.Cnt != 1 || p.Of != 2 {
		t.Fatalf("unexpected progress on chunk 1: %+v", p)
	}
	if p := feedback[2].Status.Result.Progress; p == nil || p.Cnt != 2 || p.Of != 2 {
		t.Fatalf("unexpected progress on chunk 2: %+v", p)
	}
}

func TestAttributeSelectionByIndex(t *testing.T) {
	srv, ts := newTestServer(t, server.Options{})
	config := fleetConfig(ts.URL)
	config.Attributes = []string{
		"device_type:raspberrypi4|beaglebone",
		"group",
	}

	device, err := NewDevice(config, 1)
	if err != nil {
		t.Fatal(err)
	}
	device.RunOnce(context.Background())

	attributes := srv.Attributes(device.ControllerID)
	if attributes["device_type"] != "beaglebone" {
		t.Fatalf("index 1 should pick the second value, got %q",
			attributes["device_type"])
	}
	if _, ok := attributes["group"]; ok {
		t.Fatal("an attribute without a value should be skipped")
	}
}

func TestRunOnceConfirmation(t *testing.T) {
	srv, ts := newTestServer(t, server.Options{RequireConfirmation: true})

	denyConfig := fleetConfig(ts.URL)
	denyConfig.ConfirmMode = ConfirmModeDeny
	denier, err := NewDevice(denyConfig, 7)
	if err != nil {
		t.Fatal(err)
	}
	srv.ScheduleDeployment(denier.ControllerID,
		server.Chunk{Part: "os", Version: "1.0", Name: "image"})

	denier.RunOnce(context.Background())
	if state, _ := srv.ActionStatus(denier.ControllerID); state != server.StateWaitingConfirmation {
		t.Fatalf("deny should keep the action gated, state %s", state)
	}

	confirmConfig := fleetConfig(ts.URL)
	confirmer, err := NewDevice(confirmConfig, 7)
	if err != nil {
		t.Fatal(err)
	}
	if confirmer.ControllerID != denier.ControllerID {
		t.Fatalf("expected the same controller id, got %q and %q",
			confirmer.ControllerID, denier.ControllerID)
	}

	// first cycle answers the confirmation, the deployment only becomes
	// visible on the next poll
	confirmer.RunOnce(context.Background())
	if state, _ := srv.ActionStatus(confirmer.ControllerID); state != server.StateRunning {
		t.Fatalf("confirm should open the gate, state %s", state)
	}
	confirmer.RunOnce(context.Background())
	state, result := srv.ActionStatus(confirmer.ControllerID)
	if state != server.StateClosed || result != model.FinishedSuccess {
		t.Fatalf("unexpected action state %s/%s", state, result)
	}

	confirmations := srv.Confirmations(confirmer.ControllerID)
	if len(confirmations) != 2 {
		t.Fatalf("expected 2 confirmation decisions, got %d", len(confirmations))
	}
	if confirmations[0].Confirmation != model.DecisionDenied || confirmations[0].Code != -1 {
		t.Fatalf("unexpected first decision %+v", confirmations[0])
	}
	if confirmations[1].Confirmation != model.DecisionConfirmed || confirmations[1].Code != 1 {
		t.Fatalf("unexpected second decision %+v", confirmations[1])
	}
}

func TestRunOnceConfirmationIgnored(t *testing.T) {
	srv, ts := newTestServer(t, server.Options{RequireConfirmation: true})
	config := fleetConfig(ts.URL)
	config.ConfirmMode = ConfirmModeIgnore

	device, err := NewDevice(config, 0)
	if err != nil {
		t.Fatal(err)
	}
	srv.ScheduleDeployment(device.ControllerID,
		server.Chunk{Part: "os", Version: "1.0", Name: "image"})

	device.RunOnce(context.Background())
	if state, _ := srv.ActionStatus(device.ControllerID); state != server.StateWaitingConfirmation {
		t.Fatalf("ignore must leave the gate closed, state %s", state)
	}
	if decisions := srv.Confirmations(device.ControllerID); len(decisions) != 0 {
		t.Fatalf("expected no decisions, got %d", len(decisions))
	}
}

func TestRunOnceCancel(t *testing.T) {
	srv, ts := newTestServer(t, server.Options{})
	config := fleetConfig(ts.URL)

	device, err := NewDevice(config, 0)
	if err != nil {
		t.Fatal(err)
	}
	srv.ScheduleDeployment(device.ControllerID,
		server.Chunk{Part: "os", Version: "2.0", Name: "image"})
	if _, ok := srv.ScheduleCancel(device.ControllerID); !ok {
		t.Fatal("expected an open action to cancel")
	}

	device.RunOnce(context.Background())

	state, result := srv.ActionStatus(device.ControllerID)
	if state != server.StateClosed || result != model.FinishedNone {
		t.Fatalf("unexpected action state %s/%s", state, result)
	}
	acks := srv.CancelFeedback(device.ControllerID)
	if len(acks) != 1 {
		t.Fatalf("expected 1 cancel acknowledgement, got %d", len(acks))
	}
	if acks[0].Status.Execution != model.ExecutionClosed ||
		acks[0].Status.Result.Finished != model.FinishedSuccess {
		t.Fatalf("unexpected acknowledgement %+v", acks[0].Status)
	}
	if feedback := srv.Feedback(device.ControllerID); len(feedback) != 0 {
		t.Fatalf("canceled action got deployment feedback: %+v", feedback)
	}
}

func TestRunOnceInterval(t *testing.T) {
	t.Run("InvalidServerSleep", func(t *testing.T) {
		_, ts := newTestServer(t, server.Options{PollingSleep: "30"})
		config := fleetConfig(ts.URL)
		config.DefaultSleep = 7 * time.Second

		device, err := NewDevice(config, 0)
		if err != nil {
			t.Fatal(err)
		}
		if interval := device.RunOnce(context.Background()); interval != 7*time.Second {
			t.Fatalf("expected the 7s fallback, got %s", interval)
		}
	})

	t.Run("FixedPollInterval", func(t *testing.T) {
		_, ts := newTestServer(t, server.Options{})
		config := fleetConfig(ts.URL)
		config.PollInterval = 2 * time.Second

		device, err := NewDevice(config, 0)
		if err != nil {
			t.Fatal(err)
		}
		if interval := device.RunOnce(context.Background()); interval != 2*time.Second {
			t.Fatalf("expected the fixed 2s interval, got %s", interval)
		}
	})

	t.Run("PollFailure", func(t *testing.T) {
		_, ts := newTestServer(t, server.Options{})
		ts.Close()
		config := fleetConfig(ts.URL)
		config.DefaultSleep = 3 * time.Second

		device, err := NewDevice(config, 0)
		if err != nil {
			t.Fatal(err)
		}
		if interval := device.RunOnce(context.Background()); interval != 3*time.Second {
			t.Fatalf("expected the 3s fallback, got %s", interval)
		}
	})
}

func TestDeviceAuthentication(t *testing.T) {
	_, ts := newTestServer(t, server.Options{GatewayToken: "fleet-secret"})

	config := fleetConfig(ts.URL)
	config.GatewayToken = "fleet-secret"
	device, err := NewDevice(config, 0)
	if err != nil {
		t.Fatal(err)
	}
	if interval := device.RunOnce(context.Background()); interval != 30*time.Second {
		t.Fatalf("authenticated poll should return the server sleep, got %s", interval)
	}

	wrong := fleetConfig(ts.URL)
	wrong.GatewayToken = "not-the-secret"
	intruder, err := NewDevice(wrong, 1)
	if err != nil {
		t.Fatal(err)
	}
	if interval := intruder.RunOnce(context.Background()); interval != wrong.DefaultSleep {
		t.Fatalf("rejected poll should fall back to the default sleep, got %s", interval)
	}
}

func TestRunStopsWhenContextIsDone(t *testing.T) {
	_, ts := newTestServer(t, server.Options{})
	config := fleetConfig(ts.URL)

	device, err := NewDevice(config, 0)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := device.Run(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
