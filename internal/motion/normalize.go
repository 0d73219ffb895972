// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"fmt"
	"math"
)

// StandardGravity is 1 g in m/s².
const StandardGravity = 9.80665

// Unit conventions a source may report in.
const (
	UnitG      = "g"
	UnitMS2    = "m/s2"
	UnitDegS   = "deg/s"
	UnitRadS   = "rad/s"
	UnitMicroT = "uT"
)

// Normalizer turns raw events into canonical readings:
// acceleration in m/s², angular rate in rad/s, magnetic field in µT.
type Normalizer struct {
	AccelUnit string
	GyroUnit  string
}

// NewNormalizer validates the unit names.
func NewNormalizer(accelUnit, gyroUnit string) (Normalizer, error) {
	switch accelUnit {
	case UnitG, UnitMS2:
	default:
		return Normalizer{}, fmt.Errorf("unsupported accelerometer unit %q", accelUnit)
	}
	switch gyroUnit {
	case UnitDegS, UnitRadS:
	default:
		return Normalizer{}, fmt.Errorf("unsupported gyroscope unit %q", gyroUnit)
	}
	return Normalizer{AccelUnit: accelUnit, GyroUnit: gyroUnit}, nil
}

// Normalize applies the unit correction for the event's sensor.
func (n Normalizer) Normalize(e Event) Reading {
	k := 1.0
	switch e.Sensor {
	case Accelerometer:
		if n.AccelUnit == UnitG {
			k = StandardGravity
		}
	case Gyroscope:
		if n.GyroUnit == UnitDegS {
			k = math.Pi / 180
		}
	}
	return Reading{X: e.X * k, Y: e.Y * k, Z: e.Z * k, Timestamp: e.Timestamp}
}
