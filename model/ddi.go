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

package model

// Wire types of the hawkBit Direct Device Integration API. Field names and
// tags follow the JSON the server produces and consumes.

type PollReply struct {
	Config *PollConfig `json:"config,omitempty"`
	Links  *PollLinks  `json:"_links,omitempty"`
}

type PollConfig struct {
	Polling Polling `json:"polling"`
}

type Polling struct {
	Sleep string `json:"sleep"`
}

type PollLinks struct {
	DeploymentBase   *Link `json:"deploymentBase,omitempty"`
	ConfirmationBase *Link `json:"confirmationBase,omitempty"`
	CancelAction     *Link `json:"cancelAction,omitempty"`
	ConfigData       *Link `json:"configData,omitempty"`
}

type Link struct {
	Href string `json:"href"`
}

type DeploymentBase struct {
	ID         string     `json:"id"`
	Deployment Deployment `json:"deployment"`
}

type ConfirmationBase struct {
	ID           string     `json:"id"`
	Confirmation Deployment `json:"confirmation"`
}

type Deployment struct {
	Download          string  `json:"download,omitempty"`
	Update            string  `json:"update,omitempty"`
	MaintenanceWindow string  `json:"maintenanceWindow,omitempty"`
	Chunks            []Chunk `json:"chunks"`
}

type Chunk struct {
	Part      string     `json:"part"`
	Version   string     `json:"version"`
	Name      string     `json:"name"`
	Metadata  []KeyValue `json:"metadata,omitempty"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Artifact struct {
	Filename string        `json:"filename"`
	Hashes   Hashes        `json:"hashes"`
	Size     int64         `json:"size"`
	Links    ArtifactLinks `json:"_links"`
}

type Hashes struct {
	MD5    string `json:"md5,omitempty"`
	SHA1   string `json:"sha1,omitempty"`
	SHA256 string `json:"sha256,omitempty"`
}

type ArtifactLinks struct {
	Download     *Link `json:"download,omitempty"`
	DownloadHTTP *Link `json:"download-http,omitempty"`
	MD5Sum       *Link `json:"md5sum,omitempty"`
	MD5SumHTTP   *Link `json:"md5sum-http,omitempty"`
}

type CancelBase struct {
	ID           string       `json:"id"`
	CancelAction CancelAction `json:"cancelAction"`
}

type CancelAction struct {
	StopID string `json:"stopId"`
}

// Execution is the execution state reported in deployment feedback.
type Execution string

const (
	ExecutionClosed     Execution = "closed"
	ExecutionProceeding Execution = "proceeding"
	ExecutionCanceled   Execution = "canceled"
	ExecutionScheduled  Execution = "scheduled"
	ExecutionRejected   Execution = "rejected"
	ExecutionResumed    Execution = "resumed"
	ExecutionDownload   Execution = "download"
	ExecutionDownloaded Execution = "downloaded"
)

// Finished is the final result reported in deployment feedback.
type Finished string

const (
	FinishedSuccess Finished = "success"
	FinishedFailure Finished = "failure"
	FinishedNone    Finished = "none"
)

type DeploymentFeedback struct {
	ID     string         `json:"id"`
	Status FeedbackStatus `json:"status"`
}

type FeedbackStatus struct {
	Execution Execution      `json:"execution"`
	Result    FeedbackResult `json:"result"`
	Details   []string       `json:"details"`
}

type FeedbackResult struct {
	Finished Finished  `json:"finished"`
	Progress *Progress `json:"progress,omitempty"`
}

type Progress struct {
	Cnt int `json:"cnt"`
	Of  int `json:"of"`
}

// ConfirmationDecision is the decision reported in confirmation feedback.
type ConfirmationDecision string

const (
	DecisionConfirmed ConfirmationDecision = "confirmed"
	DecisionDenied    ConfirmationDecision = "denied"
)

type Confirmation struct {
	Confirmation ConfirmationDecision `json:"confirmation"`
	Code         int                  `json:"code"`
	Details      []string             `json:"details"`
}

// ConfigMode tells the server how to fold uploaded attributes into the
// ones it already holds.
type ConfigMode string

const (
	ConfigModeMerge   ConfigMode = "merge"
	ConfigModeReplace ConfigMode = "replace"
	ConfigModeRemove  ConfigMode = "remove"
)

type ConfigData struct {
	Mode ConfigMode        `json:"mode"`
	Data map[string]string `json:"data"`
}
