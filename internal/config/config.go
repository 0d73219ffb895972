// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

// Sensor source kinds accepted by SENSOR_SOURCE.
const (
	SourceMock   = "mock"
	SourceMQTT   = "mqtt"
	SourceSPI    = "spi"
	SourceSerial = "serial"
)

// DefaultPath is the configuration file every binary reads unless told otherwise.
const DefaultPath = "./recognizer_config.txt"

// OLEDAddr is the only address the SSD1306 driver supports.
const OLEDAddr = 0x3C

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker             string
	MQTTClientIDRecognizer string
	MQTTClientIDProducer   string
	MQTTClientIDConsole    string

	// Topics
	TopicIMU      string // IMURaw JSON
	TopicAccel    string // Reading JSON
	TopicGyro     string
	TopicMag      string
	TopicActivity string

	// Sensor source
	SensorSource string

	// IMU Hardware
	IMUSPIDevice string
	IMUCSPin     string
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte

	// Serial sensor board
	SerialPort     string
	SerialBaudRate int

	// Sampling, milliseconds
	AccelSampleInterval int
	GyroSampleInterval  int
	MagSampleInterval   int

	// Units the source reports in
	AccelUnit string // "g" or "m/s2"
	GyroUnit  string // "deg/s" or "rad/s"

	// Classification
	ClassifierEndpoint  string
	ClassifierModel     string
	ClassifierTimeoutMS int
	WindowSeconds       float64
	RetentionSeconds    float64
	ClassifyInterval    float64 // seconds

	// Ingest
	IngestQueueSize int

	// Web Server
	WebServerPort      int
	UIRefreshInterval  int // milliseconds
	ExportDir          string
	MockClassifierPort int

	// Display (0 disables the OLED)
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int // milliseconds
}

// Keys lists every configuration key, in file order.
var Keys = []string{
	"MQTT_BROKER",
	"MQTT_CLIENT_ID_RECOGNIZER",
	"MQTT_CLIENT_ID_PRODUCER",
	"MQTT_CLIENT_ID_CONSOLE",
	"TOPIC_IMU",
	"TOPIC_ACCEL",
	"TOPIC_GYRO",
	"TOPIC_MAG",
	"TOPIC_ACTIVITY",
	"SENSOR_SOURCE",
	"IMU_SPI_DEVICE",
	"IMU_CS_PIN",
	"IMU_ACCEL_RANGE",
	"IMU_GYRO_RANGE",
	"SERIAL_PORT",
	"SERIAL_BAUD_RATE",
	"ACCEL_SAMPLE_INTERVAL",
	"GYRO_SAMPLE_INTERVAL",
	"MAG_SAMPLE_INTERVAL",
	"ACCEL_UNIT",
	"GYRO_UNIT",
	"CLASSIFIER_ENDPOINT",
	"CLASSIFIER_MODEL",
	"CLASSIFIER_TIMEOUT_MS",
	"WINDOW_SECONDS",
	"RETENTION_SECONDS",
	"CLASSIFY_INTERVAL",
	"INGEST_QUEUE_SIZE",
	"WEB_SERVER_PORT",
	"UI_REFRESH_INTERVAL",
	"EXPORT_DIR",
	"MOCK_CLASSIFIER_PORT",
	"DISPLAY_I2C_ADDR",
	"DISPLAY_UPDATE_INTERVAL",
}

// Package-level singleton, same contract as before: InitGlobal sets it once,
// Get reads it under a read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a configuration that runs the whole pipeline on one machine
// with the mock sensor source.
func Default() *Config {
	return &Config{
		MQTTBroker:             "tcp://localhost:1883",
		MQTTClientIDRecognizer: "activity-recognizer",
		MQTTClientIDProducer:   "activity-imu-producer",
		MQTTClientIDConsole:    "activity-console",
		TopicIMU:               "inertial/imu/left",
		TopicAccel:             "activity/sensors/accelerometer",
		TopicGyro:              "activity/sensors/gyroscope",
		TopicMag:               "activity/sensors/magnetometer",
		TopicActivity:          "activity/timeline",
		SensorSource:           SourceMock,
		IMUSPIDevice:           "/dev/spidev6.0",
		IMUCSPin:               "18",
		SerialBaudRate:         115200,
		AccelSampleInterval:    20,
		GyroSampleInterval:     20,
		MagSampleInterval:      50,
		AccelUnit:              "g",
		GyroUnit:               "deg/s",
		ClassifierEndpoint:     "http://localhost:8090",
		ClassifierModel:        "CNN",
		ClassifierTimeoutMS:    10000,
		WindowSeconds:          15,
		RetentionSeconds:       30,
		ClassifyInterval:       20,
		IngestQueueSize:        1024,
		WebServerPort:          8080,
		UIRefreshInterval:      500,
		ExportDir:              "./exports",
		MockClassifierPort:     8090,
		DisplayUpdateInterval:  1000,
	}
}

// Load reads the configuration file on top of Default, then applies
// environment overrides for every known key. An empty path skips the file.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		values, err := godotenv.Read(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := cfg.setValue(k, values[k]); err != nil {
				return nil, fmt.Errorf("config file %s: %w", configPath, err)
			}
		}
	}

	for _, k := range Keys {
		if v, ok := os.LookupEnv(k); ok {
			if err := cfg.setValue(k, v); err != nil {
				return nil, fmt.Errorf("environment: %w", err)
			}
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func atoi(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseSeconds(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, v)
	}
	return v, nil
}

func parseRange(key, value, legend string) (byte, error) {
	v, err := atoi(key, value)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 3 {
		return 0, fmt.Errorf("%s must be 0-3 (%s), got %d", key, legend, v)
	}
	return byte(v), nil
}

func parseSampleInterval(key, value string) (int, error) {
	v, err := atoi(key, value)
	if err != nil {
		return 0, err
	}
	if v < 10 || v > 50 {
		return 0, fmt.Errorf("%s must be 10-50 ms, got %d", key, v)
	}
	return v, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_RECOGNIZER":
		c.MQTTClientIDRecognizer = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value

	// Topics
	case "TOPIC_IMU":
		c.TopicIMU = value
	case "TOPIC_ACCEL":
		c.TopicAccel = value
	case "TOPIC_GYRO":
		c.TopicGyro = value
	case "TOPIC_MAG":
		c.TopicMag = value
	case "TOPIC_ACTIVITY":
		c.TopicActivity = value

	case "SENSOR_SOURCE":
		switch value {
		case SourceMock, SourceMQTT, SourceSPI, SourceSerial:
			c.SensorSource = value
		default:
			return fmt.Errorf("SENSOR_SOURCE must be one of mock, mqtt, spi, serial; got %q", value)
		}

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		c.IMUAccelRange, err = parseRange(key, value, "0=±2g, 1=±4g, 2=±8g, 3=±16g")
	case "IMU_GYRO_RANGE":
		c.IMUGyroRange, err = parseRange(key, value, "0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s")

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		c.SerialBaudRate, err = atoi(key, value)

	// Sampling
	case "ACCEL_SAMPLE_INTERVAL":
		c.AccelSampleInterval, err = parseSampleInterval(key, value)
	case "GYRO_SAMPLE_INTERVAL":
		c.GyroSampleInterval, err = parseSampleInterval(key, value)
	case "MAG_SAMPLE_INTERVAL":
		c.MagSampleInterval, err = parseSampleInterval(key, value)

	case "ACCEL_UNIT":
		if value != "g" && value != "m/s2" {
			return fmt.Errorf("ACCEL_UNIT must be g or m/s2, got %q", value)
		}
		c.AccelUnit = value
	case "GYRO_UNIT":
		if value != "deg/s" && value != "rad/s" {
			return fmt.Errorf("GYRO_UNIT must be deg/s or rad/s, got %q", value)
		}
		c.GyroUnit = value

	// Classification
	case "CLASSIFIER_ENDPOINT":
		c.ClassifierEndpoint = value
	case "CLASSIFIER_MODEL":
		c.ClassifierModel = value
	case "CLASSIFIER_TIMEOUT_MS":
		c.ClassifierTimeoutMS, err = atoi(key, value)
	case "WINDOW_SECONDS":
		c.WindowSeconds, err = parseSeconds(key, value)
	case "RETENTION_SECONDS":
		c.RetentionSeconds, err = parseSeconds(key, value)
	case "CLASSIFY_INTERVAL":
		c.ClassifyInterval, err = parseSeconds(key, value)

	case "INGEST_QUEUE_SIZE":
		c.IngestQueueSize, err = atoi(key, value)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = atoi(key, value)
	case "UI_REFRESH_INTERVAL":
		c.UIRefreshInterval, err = atoi(key, value)
	case "EXPORT_DIR":
		c.ExportDir = value
	case "MOCK_CLASSIFIER_PORT":
		c.MockClassifierPort, err = atoi(key, value)

	// Display
	case "DISPLAY_I2C_ADDR":
		addr, perr := strconv.ParseUint(value, 0, 16)
		if perr != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, perr)
		}
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = atoi(key, value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}
	return err
}

// validate checks the cross-field constraints.
func (c *Config) validate() error {
	if c.MQTTBroker == "" && (c.SensorSource == SourceMQTT || c.TopicActivity != "") {
		return errors.New("MQTT_BROKER is required")
	}
	if c.ClassifierEndpoint == "" {
		return errors.New("CLASSIFIER_ENDPOINT is required")
	}
	if c.ClassifierModel != "CNN" && c.ClassifierModel != "HGBC" {
		return fmt.Errorf("CLASSIFIER_MODEL must be CNN or HGBC, got %q", c.ClassifierModel)
	}
	if c.ClassifierTimeoutMS <= 0 {
		return errors.New("CLASSIFIER_TIMEOUT_MS must be positive")
	}
	if c.RetentionSeconds < c.WindowSeconds*1.2 {
		return fmt.Errorf("RETENTION_SECONDS (%v) must cover WINDOW_SECONDS plus the 20%% margin (%v)",
			c.RetentionSeconds, c.WindowSeconds*1.2)
	}
	if c.SensorSource == SourceSerial && c.SerialPort == "" {
		return errors.New("SERIAL_PORT is required for the serial sensor source")
	}
	if c.SensorSource == SourceSPI && c.IMUSPIDevice == "" {
		return errors.New("IMU_SPI_DEVICE is required for the spi sensor source")
	}
	if c.DisplayI2CAddr != 0 && c.DisplayI2CAddr != OLEDAddr {
		return fmt.Errorf("DISPLAY_I2C_ADDR must be 0 or 0x%02X, got 0x%02X", OLEDAddr, c.DisplayI2CAddr)
	}
	if c.UIRefreshInterval <= 0 {
		return errors.New("UI_REFRESH_INTERVAL must be positive")
	}
	if c.WebServerPort <= 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT out of range: %d", c.WebServerPort)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads anything.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance, nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
