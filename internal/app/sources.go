// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/activity_recognizer/internal/config"
	"github.com/relabs-tech/activity_recognizer/internal/ingest"
	"github.com/relabs-tech/activity_recognizer/internal/sensors"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// newSource picks the sensor source named by SENSOR_SOURCE.
// client is only used by the mqtt source.
func newSource(cfg *config.Config, client mqtt.Client) (ingest.Source, error) {
	switch cfg.SensorSource {
	case config.SourceMock:
		return sensors.NewMockSource(ms(cfg.AccelSampleInterval), ms(cfg.GyroSampleInterval), ms(cfg.MagSampleInterval)), nil
	case config.SourceMQTT:
		if client == nil {
			return nil, errors.New("mqtt sensor source needs an MQTT connection")
		}
		return &sensors.MQTTSource{
			Client:     client,
			TopicIMU:   cfg.TopicIMU,
			TopicAccel: cfg.TopicAccel,
			TopicGyro:  cfg.TopicGyro,
			TopicMag:   cfg.TopicMag,
			AccelRange: cfg.IMUAccelRange,
			GyroRange:  cfg.IMUGyroRange,
		}, nil
	case config.SourceSPI:
		return &sensors.SPISource{
			Device:     cfg.IMUSPIDevice,
			CSPin:      cfg.IMUCSPin,
			AccelRange: cfg.IMUAccelRange,
			GyroRange:  cfg.IMUGyroRange,
			Interval:   ms(cfg.AccelSampleInterval),
		}, nil
	case config.SourceSerial:
		return &sensors.SerialSource{PortName: cfg.SerialPort, BaudRate: uint(cfg.SerialBaudRate)}, nil
	}
	return nil, fmt.Errorf("unknown sensor source %q", cfg.SensorSource)
}
