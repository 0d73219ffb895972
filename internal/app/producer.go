// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/activity_recognizer/internal/config"
	"github.com/relabs-tech/activity_recognizer/internal/motion"
)

// readingPublisher turns source events into per-sensor Reading messages.
type readingPublisher struct {
	client mqtt.Client
	topics map[motion.Sensor]string

	published atomic.Uint64
	failed    atomic.Uint64
}

func newReadingPublisher(client mqtt.Client, cfg *config.Config) *readingPublisher {
	return &readingPublisher{
		client: client,
		topics: map[motion.Sensor]string{
			motion.Accelerometer: cfg.TopicAccel,
			motion.Gyroscope:     cfg.TopicGyro,
			motion.Magnetometer:  cfg.TopicMag,
		},
	}
}

// readingPayload is the JSON body published for one event.
func readingPayload(e motion.Event) ([]byte, error) {
	return json.Marshal(motion.Reading{X: e.X, Y: e.Y, Z: e.Z, Timestamp: e.Timestamp})
}

func (p *readingPublisher) emit(e motion.Event) {
	topic := p.topics[e.Sensor]
	if topic == "" {
		return
	}
	payload, err := readingPayload(e)
	if err != nil {
		log.Printf("producer: %s marshal error: %v", e.Sensor, err)
		return
	}
	token := p.client.Publish(topic, 0, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			if p.failed.Add(1)%100 == 1 {
				log.Printf("producer: MQTT publish error (%s): %v", topic, token.Error())
			}
			return
		}
		p.published.Add(1)
	}()
}

// RunSensorProducer publishes readings from the configured local source
// (mock, spi or serial) to the per-sensor MQTT topics, in the source's
// native units.
func RunSensorProducer() error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("configuration not initialized")
	}
	if cfg.SensorSource == config.SourceMQTT {
		return fmt.Errorf("producer: SENSOR_SOURCE=%s would republish its own input", cfg.SensorSource)
	}

	source, err := newSource(cfg, nil)
	if err != nil {
		return err
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Printf("producer: connected to MQTT at %s, source %s", cfg.MQTTBroker, cfg.SensorSource)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pub := newReadingPublisher(client, cfg)
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Printf("producer: %d readings published, %d failed", pub.published.Load(), pub.failed.Load())
			}
		}
	}()

	err = source.Run(ctx, pub.emit)
	log.Println("producer: shutting down")
	return err
}
