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
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/mendersoftware/hawkbit-ddi-client/model"
	"github.com/mendersoftware/hawkbit-ddi-client/server"
	"github.com/mendersoftware/hawkbit-ddi-client/token"
)

func main() {
	doMain(os.Args)
}

func doMain(args []string) {
	app := &cli.App{
		Commands: []cli.Command{
			{
				Name:   "run",
				Usage:  "Run the simulated controllers",
				Action: cmdRun,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "server-url",
						Usage: "hawkBit server's URL",
						Value: "http://localhost:8080",
					},
					&cli.StringFlag{
						Name:  "tenant",
						Usage: "Tenant the controllers belong to",
						Value: "default",
					},
					&cli.StringFlag{
						Name:  "controller-id-prefix",
						Usage: "Prefix of the generated controller ids",
						Value: "simulator",
					},
					&cli.Int64Flag{
						Name:  "count",
						Usage: "Number of controllers to run",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "start-time",
						Usage: "Start up time in seconds; the controllers will spawn uniformly in the given amount of time",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "poll-interval",
						Usage: "Fixed poll interval in seconds, overrides the sleep sent by the server",
					},
					&cli.IntFlag{
						Name:  "default-sleep",
						Usage: "Poll interval in seconds used when the server sends none or an invalid one",
						Value: 30,
					},
					&cli.IntFlag{
						Name:  "deployment-time",
						Usage: "Simulated installation time in seconds after a download",
					},
					&cli.StringFlag{
						Name:  "target-token",
						Usage: "Target token, shared by all controllers",
					},
					&cli.StringFlag{
						Name:  "gateway-token",
						Usage: "Gateway token",
					},
					&cli.StringFlag{
						Name:  "gateway-token-file",
						Usage: "Path to a gateway token file, generated when missing",
					},
					&cli.StringFlag{
						Name:  "download-dir",
						Usage: "Directory to store downloaded artifacts in; artifacts are discarded after verification when empty",
					},
					&cli.StringFlag{
						Name:  "confirm-mode",
						Usage: "How to answer confirmation requests: confirm, deny or ignore",
						Value: "confirm",
					},
					&cli.StringSliceFlag{
						Name:  "attribute",
						Usage: "Config data attribute, in the form of key:value1|value2",
						Value: &cli.StringSlice{
							"device_type:simulated",
							"client_version:1.0.0",
							"device_group:group1|group2",
						},
					},
					&cli.StringFlag{
						Name:  "metrics-listen",
						Usage: "Address to serve Prometheus metrics on, disabled when empty",
					},
					&cli.BoolFlag{
						Name:  "insecure-skip-verify",
						Usage: "Skip TLS certificate verification",
					},
					&cli.StringFlag{
						Name:  "config",
						Usage: "Path to a YAML configuration file",
					},
					&cli.BoolFlag{
						Name:  "debug",
						Usage: "Enable debug mode",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Run an in-memory hawkBit DDI server",
				Action: cmdServe,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "Address to listen on",
						Value: ":8080",
					},
					&cli.StringFlag{
						Name:  "tenant",
						Usage: "Tenant to serve",
						Value: "default",
					},
					&cli.StringFlag{
						Name:  "gateway-token",
						Usage: "Gateway token to require; anonymous access when empty",
					},
					&cli.StringFlag{
						Name:  "gateway-token-file",
						Usage: "Path to a gateway token file, generated when missing",
					},
					&cli.StringFlag{
						Name:  "polling-sleep",
						Usage: "Sleep sent in poll replies, in the form HH:MM:SS",
						Value: "00:00:30",
					},
					&cli.BoolFlag{
						Name:  "require-confirmation",
						Usage: "Gate deployments behind a confirmation",
					},
					&cli.Int64Flag{
						Name:  "auto-assign-size",
						Usage: "Schedule a deployment with an artifact of this many bytes for every controller on first contact",
					},
					&cli.BoolFlag{
						Name:  "debug",
						Usage: "Enable debug mode",
					},
				},
			},
		},
	}

	err := app.Run(args)
	if err != nil {
		log.Fatal(err)
	}
}

func cmdRun(args *cli.Context) error {
	if args.Bool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	config := &model.RunConfig{
		Count:              args.Int64("count"),
		ServerURL:          args.String("server-url"),
		Tenant:             args.String("tenant"),
		ControllerIDPrefix: args.String("controller-id-prefix"),
		TargetToken:        args.String("target-token"),
		GatewayToken:       args.String("gateway-token"),
		GatewayTokenFile:   args.String("gateway-token-file"),
		Attributes:         args.StringSlice("attribute"),
		StartTime:          time.Duration(args.Int("start-time")) * time.Second,
		PollInterval:       time.Duration(args.Int("poll-interval")) * time.Second,
		DefaultSleep:       time.Duration(args.Int("default-sleep")) * time.Second,
		DeploymentTime:     time.Duration(args.Int("deployment-time")) * time.Second,
		DownloadDir:        args.String("download-dir"),
		ConfirmMode:        args.String("confirm-mode"),
		MetricsListen:      args.String("metrics-listen"),
		InsecureSkipVerify: args.Bool("insecure-skip-verify"),
	}

	if path := args.String("config"); path != "" {
		fileConfig, err := model.LoadFileConfig(path)
		if err != nil {
			return err
		}
		fileConfig.Apply(config, args.IsSet)
	}

	if config.GatewayTokenFile != "" && config.GatewayToken == "" {
		gatewayToken, err := token.LoadOrGenerate(config.GatewayTokenFile)
		if err != nil {
			return err
		}
		config.GatewayToken = gatewayToken
	}

	return run(config)
}

func cmdServe(args *cli.Context) error {
	if args.Bool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	opts := server.Options{
		Tenant:              args.String("tenant"),
		GatewayToken:        args.String("gateway-token"),
		PollingSleep:        args.String("polling-sleep"),
		RequireConfirmation: args.Bool("require-confirmation"),
		AutoAssignSize:      args.Int64("auto-assign-size"),
	}
	if path := args.String("gateway-token-file"); path != "" && opts.GatewayToken == "" {
		gatewayToken, err := token.LoadOrGenerate(path)
		if err != nil {
			return err
		}
		opts.GatewayToken = gatewayToken
	}

	return serve(args.String("listen"), opts)
}
