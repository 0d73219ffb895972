// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/activity_recognizer/internal/motion"
	"github.com/relabs-tech/activity_recognizer/internal/sensors"
)

// RunMockConsole prints the mock sensor source locally, without MQTT,
// to check what the recognizer would be fed.
func RunMockConsole() error {
	src := sensors.NewMockSource(100*time.Millisecond, 100*time.Millisecond, 500*time.Millisecond)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return src.Run(ctx, func(e motion.Event) {
		r := motion.Reading{X: e.X, Y: e.Y, Z: e.Z, Timestamp: e.Timestamp}
		fmt.Printf("%-8s %s\n", src.Gait(time.Unix(0, e.Timestamp)), formatReading(e.Sensor, r))
	})
}
