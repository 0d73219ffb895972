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
		Verbose    bool   `short:"v" long:"verbose" description:"also print every sensor reading"`
		Mock       bool   `long:"mock" description:"print the local mock source instead of MQTT"`
	}
	if _, err := flags.Parse(&opts); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Mock {
		log.Println("starting activity console (local mock source)")
		if err := app.RunMockConsole(); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		return
	}

	log.Println("starting activity console (MQTT subscriber)")

	if err := config.InitGlobal(opts.ConfigPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(opts.Verbose); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
