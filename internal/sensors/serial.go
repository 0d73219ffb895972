// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/activity_recognizer/internal/motion"
)

// ErrBadLine is returned by ParseLine for lines that are not sensor samples.
var ErrBadLine = errors.New("malformed sensor line")

// ParseLine decodes one line of the serial sensor protocol:
//
//	<kind>,<x>,<y>,<z>[,<timestamp_ns>]
//
// kind is A, G or M (or a full sensor name). Without a timestamp the
// sample is stamped with now.
func ParseLine(line string, now time.Time) (motion.Event, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != 4 && len(fields) != 5 {
		return motion.Event{}, fmt.Errorf("%w: %q", ErrBadLine, line)
	}
	s, err := motion.ParseSensor(fields[0])
	if err != nil {
		return motion.Event{}, fmt.Errorf("%w: %v", ErrBadLine, err)
	}
	var xyz [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i+1]), 64)
		if err != nil {
			return motion.Event{}, fmt.Errorf("%w: axis %d: %v", ErrBadLine, i, err)
		}
		xyz[i] = v
	}
	ts := now.UnixNano()
	if len(fields) == 5 {
		ts, err = strconv.ParseInt(strings.TrimSpace(fields[4]), 10, 64)
		if err != nil {
			return motion.Event{}, fmt.Errorf("%w: timestamp: %v", ErrBadLine, err)
		}
	}
	return motion.Event{Sensor: s, X: xyz[0], Y: xyz[1], Z: xyz[2], Timestamp: ts}, nil
}

// SerialSource reads the line protocol from a serial sensor board.
type SerialSource struct {
	PortName string
	BaudRate uint
}

// Run opens the port and emits one event per valid line. Malformed lines
// (boot banners, partial lines) are skipped.
func (s *SerialSource) Run(ctx context.Context, emit func(motion.Event)) error {
	opts := serial.OpenOptions{
		PortName:              s.PortName,
		BaudRate:              s.BaudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return fmt.Errorf("serial open %s: %w", s.PortName, err)
	}
	log.Printf("serial sensor port opened on %s at %d baud", opts.PortName, opts.BaudRate)

	// closing the port unblocks the reader
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	err = readLines(port, time.Now, emit)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func readLines(r io.Reader, now func() time.Time, emit func(motion.Event)) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			if ev, perr := ParseLine(line, now()); perr == nil {
				emit(ev)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("serial read: %w", err)
		}
	}
}
