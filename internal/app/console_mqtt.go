// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/activity_recognizer/internal/config"
	"github.com/relabs-tech/activity_recognizer/internal/motion"
	"github.com/relabs-tech/activity_recognizer/internal/timeline"
)

func formatActivity(a timeline.Activity) string {
	start := time.Unix(0, a.StartTime).Format("15:04:05")
	end := time.Unix(0, a.EndTime).Format("15:04:05")
	return fmt.Sprintf("[ACT]  #%-4d %-10s %s-%s  p=%.2f", a.ID, a.Label, start, end, a.Probabilities[a.Label])
}

var readingTags = map[motion.Sensor]string{
	motion.Accelerometer: "[ACC]",
	motion.Gyroscope:     "[GYR]",
	motion.Magnetometer:  "[MAG]",
}

func formatReading(s motion.Sensor, r motion.Reading) string {
	return fmt.Sprintf("%s  x=%8.3f y=%8.3f z=%8.3f", readingTags[s], r.X, r.Y, r.Z)
}

// RunConsoleMQTT prints activities and, when verbose, every reading
// published on the recognizer's topics.
func RunConsoleMQTT(verbose bool) error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("configuration not initialized")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	actToken := client.Subscribe(cfg.TopicActivity, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var a timeline.Activity
		if err := json.Unmarshal(msg.Payload(), &a); err != nil {
			log.Printf("console: activity unmarshal error: %v", err)
			return
		}
		fmt.Println(formatActivity(a))
	})
	actToken.Wait()
	if actToken.Error() != nil {
		return actToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicActivity)

	if verbose {
		topics := map[motion.Sensor]string{
			motion.Accelerometer: cfg.TopicAccel,
			motion.Gyroscope:     cfg.TopicGyro,
			motion.Magnetometer:  cfg.TopicMag,
		}
		for _, s := range motion.Sensors {
			s := s
			token := client.Subscribe(topics[s], 0, func(_ mqtt.Client, msg mqtt.Message) {
				var r motion.Reading
				if err := json.Unmarshal(msg.Payload(), &r); err != nil {
					log.Printf("console: %s unmarshal error: %v", s, err)
					return
				}
				fmt.Println(formatReading(s, r))
			})
			token.Wait()
			if token.Error() != nil {
				return token.Error()
			}
			log.Printf("console: subscribed to %s", topics[s])
		}
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
