// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

// IMURaw is the raw MPU9250 payload published by the inertial producers.
// Accel and gyro are signed 16-bit counts, mag is µT×10.
type IMURaw struct {
	Source string `json:"source"` // "left" or "right"

	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`

	Mx int16 `json:"mx"` // magnetometer
	My int16 `json:"my"`
	Mz int16 `json:"mz"`
}

// Full-scale ranges indexed by the IMU_ACCEL_RANGE / IMU_GYRO_RANGE codes.
var (
	accelFullScaleG   = []float64{2, 4, 8, 16}
	gyroFullScaleDegS = []float64{250, 500, 1000, 2000}
)

const countsPerFullScale = 32768.0

// AccelScale returns g per count for an accelerometer range code (0-3).
func AccelScale(rangeCode byte) float64 {
	if int(rangeCode) >= len(accelFullScaleG) {
		rangeCode = 0
	}
	return accelFullScaleG[rangeCode] / countsPerFullScale
}

// GyroScale returns deg/s per count for a gyroscope range code (0-3).
func GyroScale(rangeCode byte) float64 {
	if int(rangeCode) >= len(gyroFullScaleDegS) {
		rangeCode = 0
	}
	return gyroFullScaleDegS[rangeCode] / countsPerFullScale
}

// Events converts one raw sample into three raw events sharing timestamp ts.
// Accel comes out in g, gyro in deg/s and mag in µT.
func (r IMURaw) Events(ts int64, accelRange, gyroRange byte) [3]Event {
	as := AccelScale(accelRange)
	gs := GyroScale(gyroRange)
	return [3]Event{
		{Sensor: Accelerometer, X: float64(r.Ax) * as, Y: float64(r.Ay) * as, Z: float64(r.Az) * as, Timestamp: ts},
		{Sensor: Gyroscope, X: float64(r.Gx) * gs, Y: float64(r.Gy) * gs, Z: float64(r.Gz) * gs, Timestamp: ts},
		{Sensor: Magnetometer, X: float64(r.Mx) / 10, Y: float64(r.My) / 10, Z: float64(r.Mz) / 10, Timestamp: ts},
	}
}
