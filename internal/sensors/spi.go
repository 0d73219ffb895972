// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/activity_recognizer/internal/motion"
)

// SPISource polls an MPU9250 over SPI and emits accelerometer and gyroscope
// events in g and deg/s. The magnetometer sits behind the chip's auxiliary
// I2C master and is not read here.
type SPISource struct {
	Device     string // e.g. /dev/spidev6.0
	CSPin      string // e.g. "18"
	AccelRange byte   // 0=±2g ... 3=±16g
	GyroRange  byte   // 0=±250°/s ... 3=±2000°/s
	Interval   time.Duration
}

func (s *SPISource) open() (*mpu9250.MPU9250, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("IMU: periph host init: %w", err)
	}

	cs := gpioreg.ByName(s.CSPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU: CS pin %q not found", s.CSPin)
	}

	tr, err := mpu9250.NewSpiTransport(s.Device, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU: SPI transport (%s): %w", s.Device, err)
	}

	imu, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("IMU: device creation: %w", err)
	}
	if err := imu.Init(); err != nil {
		return nil, fmt.Errorf("IMU: initialization: %w", err)
	}

	if err := imu.SetAccelRange(s.AccelRange); err != nil {
		return nil, fmt.Errorf("IMU: set accel range: %w", err)
	}
	if err := imu.SetGyroRange(s.GyroRange); err != nil {
		return nil, fmt.Errorf("IMU: set gyro range: %w", err)
	}
	log.Printf("IMU: ranges set (accel code %d = ±%.0fg, gyro code %d = ±%.0f°/s)",
		s.AccelRange, motion.AccelScale(s.AccelRange)*32768,
		s.GyroRange, motion.GyroScale(s.GyroRange)*32768)

	if err := imu.Calibrate(); err != nil {
		log.Printf("Warning: IMU calibration failed: %v", err)
	} else {
		log.Printf("IMU calibration complete")
	}
	return imu, nil
}

func readRaw(imu *mpu9250.MPU9250) (motion.IMURaw, error) {
	var raw motion.IMURaw
	var err error
	read := []struct {
		name string
		dst  *int16
		fn   func() (int16, error)
	}{
		{"accel X", &raw.Ax, imu.GetAccelerationX},
		{"accel Y", &raw.Ay, imu.GetAccelerationY},
		{"accel Z", &raw.Az, imu.GetAccelerationZ},
		{"gyro X", &raw.Gx, imu.GetRotationX},
		{"gyro Y", &raw.Gy, imu.GetRotationY},
		{"gyro Z", &raw.Gz, imu.GetRotationZ},
	}
	for _, r := range read {
		if *r.dst, err = r.fn(); err != nil {
			return motion.IMURaw{}, fmt.Errorf("IMU %s: %w", r.name, err)
		}
	}
	raw.Source = "spi"
	return raw, nil
}

// Run initializes the device and polls it every Interval until ctx is done.
// Read errors are logged and the sample skipped.
func (s *SPISource) Run(ctx context.Context, emit func(motion.Event)) error {
	imu, err := s.open()
	if err != nil {
		return err
	}

	interval := s.Interval
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			raw, err := readRaw(imu)
			if err != nil {
				log.Printf("IMU read error: %v", err)
				continue
			}
			ev := raw.Events(t.UnixNano(), s.AccelRange, s.GyroRange)
			emit(ev[0])
			emit(ev[1])
		}
	}
}
