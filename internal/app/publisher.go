// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/activity_recognizer/internal/pipeline"
)

// activityPublisher forwards every new timeline entry to MQTT.
type activityPublisher struct {
	client mqtt.Client
	topic  string
}

func newActivityPublisher(client mqtt.Client, topic string) *activityPublisher {
	return &activityPublisher{client: client, topic: topic}
}

func (p *activityPublisher) publish(res pipeline.Result) {
	if res.Outcome != pipeline.OutcomeClassified || res.Activity == nil {
		return
	}
	payload, err := json.Marshal(res.Activity)
	if err != nil {
		log.Printf("recognizer: activity marshal error: %v", err)
		return
	}
	// don't block the cycle on the broker
	token := p.client.Publish(p.topic, 0, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Printf("recognizer: MQTT publish error (%s): %v", p.topic, token.Error())
		}
	}()
}
