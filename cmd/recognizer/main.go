// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"errors"
	"log"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/relabs-tech/activity_recognizer/internal/app"
	"github.com/relabs-tech/activity_recognizer/internal/config"
)

func main() {
	var opts struct {
		ConfigPath string `short:"c" long:"config" description:"path to configuration file" default:"./recognizer_config.txt"`
		Source     string `short:"s" long:"source" description:"override SENSOR_SOURCE (mock, mqtt, spi, serial)"`
		Model      string `short:"m" long:"model" description:"override CLASSIFIER_MODEL (CNN, HGBC)"`
	}
	if _, err := flags.Parse(&opts); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	log.Println("starting activity recognizer (sensors -> classifier -> timeline)")

	// flag overrides go through the same validation as the file
	if opts.Source != "" {
		os.Setenv("SENSOR_SOURCE", opts.Source)
	}
	if opts.Model != "" {
		os.Setenv("CLASSIFIER_MODEL", opts.Model)
	}

	if err := config.InitGlobal(opts.ConfigPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunRecognizer(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
