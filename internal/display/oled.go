// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"image"
	"log"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

// OLED is an SSD1306 panel on the default I2C bus.
type OLED struct {
	bus i2c.BusCloser
	dev *ssd1306.Dev
}

// Addr is the fixed I2C address of the upstream ssd1306 driver.
const Addr = 0x3C

// OpenOLED initializes the panel on the default I2C bus.
func OpenOLED() (*OLED, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to initialize display at 0x%02X: %w", Addr, err)
	}
	log.Printf("display: initialized at 0x%02X", Addr)
	return &OLED{bus: bus, dev: dev}, nil
}

// Show pushes img to the panel.
func (o *OLED) Show(img image.Image) error {
	return o.dev.Draw(o.dev.Bounds(), img, image.Point{})
}

// Close blanks the panel and releases the bus.
func (o *OLED) Close() error {
	if err := o.dev.Halt(); err != nil {
		log.Printf("display: halt: %v", err)
	}
	return o.bus.Close()
}
