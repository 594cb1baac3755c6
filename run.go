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

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/mendersoftware/hawkbit-ddi-client/model"
	"github.com/mendersoftware/hawkbit-ddi-client/simulator"
)

func run(config *model.RunConfig) error {
	if config.Count <= 0 {
		return errors.New("count must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.MetricsListen != "" {
		go serveMetrics(config.MetricsListen)
	}

	for i := int64(0); i < config.Count; i++ {
		device, err := simulator.NewDevice(config, i)
		if err != nil {
			return err
		}
		go device.Run(ctx)

		time.Sleep(config.StartTime / time.Duration(config.Count))
	}

	<-ctx.Done()
	return nil
}

func serveMetrics(listen string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(listen, mux); err != nil {
		log.Errorf("metrics listener: %s", err)
	}
}
