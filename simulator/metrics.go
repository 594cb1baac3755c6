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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

var (
	pollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hawkbit_client_polls_total",
		Help: "Poll requests by outcome.",
	}, []string{"outcome"})

	pollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hawkbit_client_poll_duration_seconds",
		Help:    "Latency of poll requests.",
		Buckets: prometheus.DefBuckets,
	})

	actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hawkbit_client_actions_total",
		Help: "Actions received from the server by type.",
	}, []string{"type"})

	feedbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hawkbit_client_feedback_total",
		Help: "Deployment feedback posted by execution state.",
	}, []string{"execution"})

	confirmationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hawkbit_client_confirmations_total",
		Help: "Confirmation decisions posted by decision.",
	}, []string{"decision"})

	configUploads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hawkbit_client_config_uploads_total",
		Help: "Attribute uploads accepted by the server.",
	})

	downloadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hawkbit_client_download_bytes_total",
		Help: "Artifact bytes downloaded and accepted.",
	})

	checksumFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hawkbit_client_checksum_failures_total",
		Help: "Artifact downloads rejected by digest verification.",
	})
)
