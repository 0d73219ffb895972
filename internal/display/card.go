// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package display renders the recognizer status as a 128x64 1-bit card,
// the size of the SSD1306 modules used on the inertial rig.
package display

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/activity_recognizer/internal/motion"
)

// Width and Height of the card in pixels.
const (
	Width  = 128
	Height = 64
)

// Card is what the status screen shows.
type Card struct {
	Recording   bool
	Since       time.Duration // time spent recording
	Label       string        // latest activity, empty if none yet
	Probability float64       // mean probability of Label
	Activities  int           // raw timeline length
	Accel       *motion.Reading
}

// Render draws c on a fresh 1-bit image.
func Render(c Card) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, Width, Height))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	line := func(y int, s string) {
		drawer.Dot = fixed.P(0, y)
		drawer.DrawString(s)
	}

	if c.Recording {
		line(13, fmt.Sprintf("REC %s", c.Since.Truncate(time.Second)))
	} else {
		line(13, "IDLE")
	}

	if c.Label == "" {
		line(26, "No activity yet")
	} else {
		line(26, c.Label)
		line(39, fmt.Sprintf("p=%.2f n=%d", c.Probability, c.Activities))
	}

	if c.Accel != nil {
		line(52, fmt.Sprintf("A%5.1f%5.1f%5.1f", c.Accel.X, c.Accel.Y, c.Accel.Z))
	}
	return img
}

// WritePNG encodes a rendered card as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
