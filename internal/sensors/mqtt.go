// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/activity_recognizer/internal/motion"
)

// MQTTSource subscribes to sensor topics on an already connected client.
// TopicIMU carries motion.IMURaw payloads; the per-sensor topics carry
// motion.Reading payloads. Empty topics are not subscribed.
type MQTTSource struct {
	Client     mqtt.Client
	TopicIMU   string
	TopicAccel string
	TopicGyro  string
	TopicMag   string
	AccelRange byte
	GyroRange  byte
}

// DecodeIMURaw converts an IMURaw payload to three events stamped with now.
func DecodeIMURaw(payload []byte, now time.Time, accelRange, gyroRange byte) ([3]motion.Event, error) {
	var raw motion.IMURaw
	if err := json.Unmarshal(payload, &raw); err != nil {
		return [3]motion.Event{}, fmt.Errorf("decode IMU payload: %w", err)
	}
	return raw.Events(now.UnixNano(), accelRange, gyroRange), nil
}

// DecodeReading converts a Reading payload for sensor s. A missing
// timestamp is replaced with now.
func DecodeReading(s motion.Sensor, payload []byte, now time.Time) (motion.Event, error) {
	var r motion.Reading
	if err := json.Unmarshal(payload, &r); err != nil {
		return motion.Event{}, fmt.Errorf("decode %s payload: %w", s, err)
	}
	if r.Timestamp == 0 {
		r.Timestamp = now.UnixNano()
	}
	return motion.Event{Sensor: s, X: r.X, Y: r.Y, Z: r.Z, Timestamp: r.Timestamp}, nil
}

// Run subscribes, forwards events until ctx is cancelled, then unsubscribes.
func (m *MQTTSource) Run(ctx context.Context, emit func(motion.Event)) error {
	var topics []string
	subscribe := func(topic string, handler mqtt.MessageHandler) error {
		if topic == "" {
			return nil
		}
		if token := m.Client.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
			return fmt.Errorf("MQTT subscribe %s: %w", topic, token.Error())
		}
		topics = append(topics, topic)
		log.Printf("sensors: subscribed to %s", topic)
		return nil
	}
	defer func() {
		if len(topics) > 0 {
			m.Client.Unsubscribe(topics...).Wait()
		}
	}()

	err := subscribe(m.TopicIMU, func(_ mqtt.Client, msg mqtt.Message) {
		evs, err := DecodeIMURaw(msg.Payload(), time.Now(), m.AccelRange, m.GyroRange)
		if err != nil {
			log.Printf("sensors: %v", err)
			return
		}
		for _, ev := range evs {
			emit(ev)
		}
	})
	if err != nil {
		return err
	}

	perSensor := map[motion.Sensor]string{
		motion.Accelerometer: m.TopicAccel,
		motion.Gyroscope:     m.TopicGyro,
		motion.Magnetometer:  m.TopicMag,
	}
	for _, s := range motion.Sensors {
		s := s
		err := subscribe(perSensor[s], func(_ mqtt.Client, msg mqtt.Message) {
			ev, err := DecodeReading(s, msg.Payload(), time.Now())
			if err != nil {
				log.Printf("sensors: %v", err)
				return
			}
			emit(ev)
		})
		if err != nil {
			return err
		}
	}
	if len(topics) == 0 {
		return fmt.Errorf("MQTT source: no topics configured")
	}

	<-ctx.Done()
	return nil
}
