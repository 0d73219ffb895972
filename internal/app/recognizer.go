// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/handlers"

	"github.com/relabs-tech/activity_recognizer/internal/classifier"
	"github.com/relabs-tech/activity_recognizer/internal/config"
	"github.com/relabs-tech/activity_recognizer/internal/display"
	"github.com/relabs-tech/activity_recognizer/internal/ingest"
	"github.com/relabs-tech/activity_recognizer/internal/metrics"
	"github.com/relabs-tech/activity_recognizer/internal/motion"
	"github.com/relabs-tech/activity_recognizer/internal/pipeline"
	"github.com/relabs-tech/activity_recognizer/internal/timeline"
)

// Recognizer wires ingest, the classification pipeline and the UI surfaces
// of one recognizer process.
type Recognizer struct {
	cfg *config.Config

	Ingestor *ingest.Ingestor
	Recorder *ingest.Recorder
	Pipeline *pipeline.Pipeline
	Timeline *timeline.Timeline
	Metrics  *metrics.Metrics

	hub *hub

	mu      sync.RWMutex
	baseCtx context.Context
}

// NewRecognizer builds a recognizer around a sensor source and a classifier.
func NewRecognizer(cfg *config.Config, source ingest.Source, cl pipeline.Classifier) (*Recognizer, error) {
	norm, err := motion.NewNormalizer(cfg.AccelUnit, cfg.GyroUnit)
	if err != nil {
		return nil, err
	}

	ing := ingest.New(norm, cfg.IngestQueueSize)
	tl := timeline.New()
	m := metrics.New(ing)

	p := pipeline.New(pipeline.Options{
		WindowSeconds:    cfg.WindowSeconds,
		RetentionSeconds: cfg.RetentionSeconds,
		Interval:         time.Duration(cfg.ClassifyInterval * float64(time.Second)),
		Model:            cfg.ClassifierModel,
	}, ing, cl, tl, m)

	r := &Recognizer{
		cfg:      cfg,
		Ingestor: ing,
		Recorder: ingest.NewRecorder(ing, source),
		Pipeline: p,
		Timeline: tl,
		Metrics:  m,
		hub:      newHub(),
		baseCtx:  context.Background(),
	}
	p.Recording = r.Recorder.Recording
	p.Subscribe(func(res pipeline.Result) {
		r.hub.broadcast(r.update("cycle", &res))
	})
	return r, nil
}

func (r *Recognizer) runContext() context.Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.baseCtx
}

// Run starts the ingest owner loop, the classification loop and the UI
// refresh loop, and blocks until ctx is cancelled.
func (r *Recognizer) Run(ctx context.Context) {
	r.mu.Lock()
	r.baseCtx = ctx
	r.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		r.Ingestor.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		r.Pipeline.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		r.refreshLoop(ctx)
	}()

	<-ctx.Done()
	if err := r.Recorder.Stop(); err != nil && !errors.Is(err, ingest.ErrNotRecording) {
		log.Printf("recognizer: stop recording: %v", err)
	}
	r.hub.closeAll()
	wg.Wait()
}

// refreshLoop pushes the current state to UI clients on its own cadence,
// independent of classification cycles.
func (r *Recognizer) refreshLoop(ctx context.Context) {
	interval := time.Duration(r.cfg.UIRefreshInterval) * time.Millisecond
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if r.hub.size() > 0 {
				r.hub.broadcast(r.update("refresh", nil))
			}
		}
	}
}

// displayLoop mirrors the status card on an attached OLED.
func (r *Recognizer) displayLoop(ctx context.Context, oled *display.OLED) {
	interval := time.Duration(r.cfg.DisplayUpdateInterval) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := oled.Show(display.Render(r.card())); err != nil {
				log.Printf("display: update error: %v", err)
			}
		}
	}
}

// RunRecognizer is the recognizer process: sensor source -> buffers ->
// periodic classification -> timeline, with the web UI, MQTT activity
// publishing and an optional OLED status display.
func RunRecognizer() error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("configuration not initialized")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var client mqtt.Client
	if cfg.MQTTBroker != "" {
		opts := mqtt.NewClientOptions().
			AddBroker(cfg.MQTTBroker).
			SetClientID(cfg.MQTTClientIDRecognizer).
			SetAutoReconnect(true)
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			if cfg.SensorSource == config.SourceMQTT {
				return fmt.Errorf("MQTT connect: %w", token.Error())
			}
			log.Printf("recognizer: MQTT unavailable, activities will not be published: %v", token.Error())
			client = nil
		} else {
			log.Printf("recognizer: connected to MQTT broker at %s", cfg.MQTTBroker)
			defer client.Disconnect(250)
		}
	}

	source, err := newSource(cfg, client)
	if err != nil {
		return err
	}
	cl := classifier.NewClient(cfg.ClassifierEndpoint, time.Duration(cfg.ClassifierTimeoutMS)*time.Millisecond)

	rec, err := NewRecognizer(cfg, source, cl)
	if err != nil {
		return err
	}
	if client != nil && cfg.TopicActivity != "" {
		rec.Pipeline.Subscribe(newActivityPublisher(client, cfg.TopicActivity).publish)
	}

	if cfg.DisplayI2CAddr != 0 {
		if oled, err := display.OpenOLED(); err != nil {
			log.Printf("recognizer: display disabled: %v", err)
		} else {
			defer oled.Close()
			go rec.displayLoop(ctx, oled)
		}
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.WebServerPort),
		Handler:           handlers.LoggingHandler(os.Stdout, handlers.RecoveryHandler()(rec.Handler())),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("recognizer: web server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("recognizer: web server: %v", err)
			stop()
		}
	}()

	log.Printf("recognizer: sensor source %s, classifier %s/%s", cfg.SensorSource, cfg.ClassifierEndpoint, cfg.ClassifierModel)
	rec.Run(ctx)

	log.Println("recognizer: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
