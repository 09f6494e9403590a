/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements. See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License. You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/noctarius/es-bulk-exporter/internal/exporter"
	"github.com/noctarius/es-bulk-exporter/internal/supporting"
	"github.com/noctarius/es-bulk-exporter/internal/supporting/logging"
	spiconfig "github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/version"
	"github.com/urfave/cli"
)

var (
	configurationFile string
	verbose           bool
	withCaller        bool
	logToStdErr       bool
	versionOnly       bool
	dryRun            bool
	printMapping      bool
	profiling         bool
)

func main() {
	app := &cli.App{
		Name:  version.BinName,
		Usage: "Bulk export of Hive table rows into Elasticsearch",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config,c",
				Value:       "",
				Usage:       "Load configuration from `FILE`",
				Destination: &configurationFile,
			},
			&cli.BoolFlag{
				Name:        "verbose",
				Usage:       "Show verbose output",
				Destination: &verbose,
			},
			&cli.BoolFlag{
				Name:        "caller",
				Usage:       "Collect caller information for log messages",
				Destination: &withCaller,
			},
			&cli.BoolFlag{
				Name:        "log-to-stderr",
				Usage:       "Redirects logging output to stderr, necessary when using stdout as the sink",
				Destination: &logToStdErr,
			},
			&cli.BoolFlag{
				Name:        "version",
				Usage:       "Prints the version and exits",
				Destination: &versionOnly,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "Exports into the in-memory store instead of the configured sink",
				Destination: &dryRun,
			},
			&cli.BoolFlag{
				Name:        "print-mapping",
				Usage:       "Prints the destination mapping derived from the schema and exits",
				Destination: &printMapping,
			},
			&cli.BoolFlag{
				Name:        "profiling",
				Usage:       "Enables the Go profiler",
				Destination: &profiling,
			},
		},
		Action: start,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func start(*cli.Context) error {
	fmt.Fprintf(os.Stderr, "%s version %s (git revision %s; branch %s)\n",
		version.BinName, version.Version, version.CommitHash, version.Branch,
	)

	if versionOnly {
		return nil
	}

	if profiling {
		cpuProfile, err := os.Create("cpu.prof")
		if err != nil {
			return err
		}
		pprof.StartCPUProfile(cpuProfile)
		defer pprof.StopCPUProfile()
	}

	logging.WithCaller = withCaller
	logging.WithVerbose = verbose

	config := &spiconfig.Config{}

	// No configuration file set? Try env variable!
	if configurationFile == "" {
		if cf, present := os.LookupEnv("ES_BULK_EXPORTER_CONFIG"); present {
			fmt.Fprintf(os.Stderr, "Using configuration file from environment variable\n")
			configurationFile = cf
		}
	}

	if configurationFile != "" {
		fmt.Fprintf(os.Stderr, "Loading configuration file: %s\n", configurationFile)
		c, err := spiconfig.LoadFile(configurationFile)
		if err != nil {
			return supporting.AdaptError(err, supporting.ExitCodeConfiguration)
		}
		config = c
	}

	if err := logging.InitializeLogging(config, logToStdErr); err != nil {
		return err
	}

	if dryRun {
		config.Sink.Type = spiconfig.Memory
	}

	e, err := exporter.NewExporter(config)
	if err != nil {
		return supporting.AdaptErrorWithMessage(err, "Export settings are invalid", supporting.ExitCodeOf(err))
	}

	if printMapping {
		fmt.Println(e.Mapping())
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		fmt.Fprintf(os.Stderr, "Cancelling export, waiting for running batches to finish\n")
		cancel()
	}()

	report, err := e.Run(ctx)
	if err != nil {
		return supporting.AdaptError(err, supporting.ExitCodeOf(err))
	}

	if dryRun {
		if err := printStoreMapping(ctx, e, os.Stderr); err != nil {
			return supporting.AdaptErrorWithMessage(
				err, "Failed to read the store mapping", supporting.ExitCodeOf(err),
			)
		}
	}

	if !report.Successful() {
		exitCode := supporting.ExitCodeJobFailed
		if report.Err != nil {
			if code := supporting.ExitCodeOf(report.Err); code != supporting.ExitCodeGeneric {
				exitCode = code
			}
		}
		return cli.NewExitError(report.String(), exitCode)
	}
	fmt.Fprintf(os.Stderr, "%s\n", report)
	return nil
}

type mappingChecker interface {
	CheckMapping(ctx context.Context) (*exporter.MappingCheck, error)
	Mapping() string
}

func printStoreMapping(
	ctx context.Context, checker mappingChecker, out io.Writer,
) error {

	logger, err := logging.NewLogger("DryRun")
	if err != nil {
		return err
	}

	check, err := checker.CheckMapping(ctx)
	if err != nil {
		return err
	}
	if check == nil {
		logger.Infof("Store mapping isn't available")
		return nil
	}
	fmt.Fprintf(out, "Store mapping: %s\n", check)
	if !check.Consistent() {
		logger.Warnf("Store mapping differs from the mapping derived from the schema: %s", checker.Mapping())
	}
	return nil
}
