package gxrpc

// --------------------------------------------------------------------------
//
//	Gurux Ltd
//
// Filename:        $HeadURL$
//
// Version:         $Revision$,
//
//	$Date$
//	$Author$
//
// # Copyright (c) Gurux Ltd
//
// ---------------------------------------------------------------------------
//
//	DESCRIPTION
//
// This file is a part of Gurux Device Framework.
//
// Gurux Device Framework is Open Source software; you can redistribute it
// and/or modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2 of the License.
// Gurux Device Framework is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU General Public License for more details.
//
// More information of Gurux products: https://www.gurux.org
//
// This code is licensed under the GNU General Public License v2.
// Full text may be retrieved at http://www.gnu.org/licenses/gpl-2.0.txt
// ---------------------------------------------------------------------------

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Gurux/gxcommon-go"
	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// DefaultAckTimeout is used when Publish is called with a non-positive
	// timeout.
	DefaultAckTimeout = 200 * time.Millisecond
	// DefaultMaxTopics is the topic table capacity used when NewGXRpc is
	// called with a non-positive capacity.
	DefaultMaxTopics = 10

	ackPollInterval = 100 * time.Microsecond
)

// Statistics is a snapshot of the protocol counters.
type Statistics struct {
	FramesSent     uint64
	FramesReceived uint64
	CRCErrors      uint64
	DroppedFrames  uint64
	AckTimeouts    uint64
}

// GXRpc is a publish/subscribe RPC protocol engine on a byte transport.
// Methods are safe for use from multiple goroutines; exactly one frame is in
// flight on the receive side at any time. Topic handlers run on the
// goroutine that called Loop or Publish and must not call back into the same
// engine.
type GXRpc struct {
	mu sync.Mutex

	transport Transport
	topics    *topicTable

	enc frameEncoder
	rx  rxSession

	// Acknowledge wait state, reset at the start of every wait.
	ackSeen    bool
	ackStatus  Status
	ackTimeout time.Duration

	clk clock.Clock
	log zerolog.Logger

	// The trace level specifies which types of trace messages are emitted.
	traceLevel gxcommon.TraceLevel

	//Called when the Media is sending or receiving data.
	onTrace gxcommon.TraceEventHandler

	//Called when a transport or framing error occurs.
	onErr gxcommon.ErrorEventHandler

	bytesSent     uint64
	bytesReceived uint64
	stats         Statistics

	// Printer for localized messages.
	p *message.Printer
}

// NewGXRpc creates a protocol engine on the given transport. maxTopics sets
// the topic table capacity; each topic costs a small fixed amount of memory.
// A non-positive capacity falls back to DefaultMaxTopics.
func NewGXRpc(transport Transport, maxTopics int) *GXRpc {
	if maxTopics <= 0 {
		maxTopics = DefaultMaxTopics
	}
	g := &GXRpc{
		transport:  transport,
		topics:     newTopicTable(maxTopics),
		ackTimeout: DefaultAckTimeout,
		clk:        clock.New(),
		log:        zerolog.Nop(),
	}
	g.Localize(language.AmericanEnglish)
	return g
}

// Validate checks that the engine is ready for use.
func (g *GXRpc) Validate() error {
	if g.transport == nil {
		return errors.New(g.p.Sprintf("msg.no_transport"))
	}
	return nil
}

// Subscribe registers a handler for a topic identifier in the range 0-62.
// It reports false when the identifier is out of range, already subscribed,
// or the topic table is full.
func (g *GXRpc) Subscribe(topicID uint8, handler TopicHandler) bool {
	if topicID > MaxTopicID {
		// 63 is reserved for acknowledgement frames.
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	ok := g.topics.add(topicID, handler)
	if !ok {
		g.tracef(gxcommon.TraceTypesInfo, "subscribe topic %d rejected", topicID)
	}
	return ok
}

// Unsubscribe removes a topic subscription. It reports false when the
// identifier was not subscribed.
func (g *GXRpc) Unsubscribe(topicID uint8) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.topics.remove(topicID)
}

// Loop drains the bytes currently available on the transport through the
// receive state machine, dispatching handlers and emitting acknowledgements
// as frames complete. The host should call it periodically.
func (g *GXRpc) Loop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pump()
}

func (g *GXRpc) pump() {
	n := 0
	for g.transport.Available() > 0 {
		b, ok := g.transport.ReadByte()
		if !ok {
			break
		}
		g.feed(b)
		n++
	}
	if n > 0 {
		recordWireBytes("rx", n)
	}
}

// Publish encodes and sends a frame on the given topic. Without an
// acknowledgement request it returns StatusOK as soon as the frame is
// written. With requireAcknowledge set it blocks, servicing incoming frames,
// until the peer's acknowledgement arrives (its carried status is returned)
// or the timeout elapses (StatusAckTimeout). A non-positive timeout selects
// the engine's acknowledge timeout setting.
//
// There is no retry logic; a publisher wanting retries calls Publish again
// after an ack timeout.
func (g *GXRpc) Publish(topicID uint8, data []byte, requireAcknowledge bool, timeout time.Duration) (Status, error) {
	if topicID > MaxTopicID {
		return StatusFrameType, errors.New(g.p.Sprintf("msg.invalid_topic_id", topicID))
	}
	if len(data) > MaxPayload {
		return StatusFrameType, errors.New(g.p.Sprintf("msg.payload_too_large", len(data), MaxPayload))
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	frame := g.enc.encode(makeFrameInfo(topicID, false, requireAcknowledge), data)
	if err := g.writeFrame(frame, StatusOK); err != nil {
		g.errorf(err)
		return StatusProcessing, err
	}
	g.log.Debug().Str("dir", "tx").
		Uint8("topic", topicID).
		Int("len", len(data)).
		Bool("ack_req", requireAcknowledge).
		Msg("frame published")
	if !requireAcknowledge {
		return StatusOK, nil
	}
	if timeout <= 0 {
		timeout = g.ackTimeout
	}
	return g.waitForAcknowledge(timeout), nil
}

// waitForAcknowledge drives the receive state machine until a valid
// acknowledgement frame arrives or the deadline passes. Unrelated incoming
// frames are processed normally during the wait.
func (g *GXRpc) waitForAcknowledge(timeout time.Duration) Status {
	g.ackSeen = false
	g.ackStatus = StatusOK
	g.rx.state = stateIdle
	g.rx.pendingEscape = false

	start := g.clk.Now()
	for {
		g.pump()
		if g.ackSeen {
			return g.ackStatus
		}
		if g.clk.Now().Sub(start) >= timeout {
			g.stats.AckTimeouts++
			recordAckTimeout()
			g.tracef(gxcommon.TraceTypesError, "TX: no acknowledge within %s", timeout)
			return StatusAckTimeout
		}
		g.clk.Sleep(ackPollInterval)
	}
}

func (g *GXRpc) writeFrame(frame []byte, status Status) error {
	if err := g.transport.Write(frame); err != nil {
		return err
	}
	g.bytesSent += uint64(len(frame))
	g.stats.FramesSent++
	recordFrame("tx", status)
	recordWireBytes("tx", len(frame))
	g.tracef(gxcommon.TraceTypesSent, "TX: % X", frame)
	return nil
}

// Statistics returns a snapshot of the protocol counters.
func (g *GXRpc) Statistics() Statistics {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

// GetBytesSent returns the number of raw wire bytes sent.
func (g *GXRpc) GetBytesSent() uint64 {
	return g.bytesSent
}

// GetBytesReceived returns the number of raw wire bytes received.
func (g *GXRpc) GetBytesReceived() uint64 {
	return g.bytesReceived
}

// ResetByteCounters clears the wire byte counters.
func (g *GXRpc) ResetByteCounters() {
	g.bytesSent = 0
	g.bytesReceived = 0
}

// AckTimeout returns the acknowledge timeout used when Publish is called
// with a non-positive timeout.
func (g *GXRpc) AckTimeout() time.Duration {
	return g.ackTimeout
}

// SetAckTimeout sets the default acknowledge timeout.
func (g *GXRpc) SetAckTimeout(value time.Duration) {
	if value > 0 {
		g.ackTimeout = value
	}
}

// SetClock replaces the clock used for acknowledge waits. Intended for
// deterministic tests; production code keeps the wall clock default.
func (g *GXRpc) SetClock(value clock.Clock) {
	g.clk = value
}

// SetLogger attaches a structured logger for frame level events. The
// default discards them.
func (g *GXRpc) SetLogger(value zerolog.Logger) {
	g.log = value
}

// GetTrace returns the used trace level.
func (g *GXRpc) GetTrace() gxcommon.TraceLevel {
	return g.traceLevel
}

// SetTrace sets the used trace level.
func (g *GXRpc) SetTrace(traceLevel gxcommon.TraceLevel) error {
	g.traceLevel = traceLevel
	return nil
}

// SetOnTrace sets the trace event handler.
func (g *GXRpc) SetOnTrace(value gxcommon.TraceEventHandler) {
	g.mu.Lock()
	g.onTrace = value
	g.mu.Unlock()
}

// SetOnError sets the error event handler.
func (g *GXRpc) SetOnError(value gxcommon.ErrorEventHandler) {
	g.mu.Lock()
	g.onErr = value
	g.mu.Unlock()
}

// String implements fmt.Stringer.
func (g *GXRpc) String() string {
	return fmt.Sprintf("GXRpc topics %d/%d ack timeout %s",
		g.topics.count(), len(g.topics.entries), g.ackTimeout)
}

// GetSettings returns the engine configuration as an XML fragment.
func (g *GXRpc) GetSettings() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<MaxTopics>%d</MaxTopics>\n", len(g.topics.entries))
	fmt.Fprintf(&b, "<AckTimeout>%d</AckTimeout>\n", g.ackTimeout/time.Millisecond)
	if g.traceLevel != 0 {
		fmt.Fprintf(&b, "<Trace>%d</Trace>\n", g.traceLevel)
	}
	return b.String()
}

// SetSettings applies configuration from an XML fragment produced by
// GetSettings. Shrinking MaxTopics below the number of active subscriptions
// fails.
func (g *GXRpc) SetSettings(value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	dec := xml.NewDecoder(strings.NewReader("<root>" + value + "</root>"))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Local {
		case "MaxTopics":
			var v string
			if err := dec.DecodeElement(&v, &se); err != nil {
				return err
			}
			capacity, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid MaxTopics value: %v", err)
			}
			if err := g.resizeTopics(capacity); err != nil {
				return err
			}
		case "AckTimeout":
			var v string
			if err := dec.DecodeElement(&v, &se); err != nil {
				return err
			}
			ms, err := strconv.Atoi(v)
			if err != nil || ms <= 0 {
				return fmt.Errorf("invalid AckTimeout value: %q", v)
			}
			g.ackTimeout = time.Duration(ms) * time.Millisecond
		case "Trace":
			var v string
			if err := dec.DecodeElement(&v, &se); err != nil {
				return err
			}
			level, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid Trace value: %q", v)
			}
			g.traceLevel = gxcommon.TraceLevel(level)
		}
	}
	return nil
}

func (g *GXRpc) resizeTopics(capacity int) error {
	if capacity < g.topics.count() {
		return errors.New(g.p.Sprintf("msg.topics_in_use", g.topics.count(), capacity))
	}
	replacement := newTopicTable(capacity)
	for i := range g.topics.entries {
		e := &g.topics.entries[i]
		if e.used {
			replacement.add(e.topicID, e.handler)
		}
	}
	g.topics = replacement
	return nil
}

// tracef emits a trace event. Callers hold g.mu, so handler fields are read
// directly.
func (g *GXRpc) tracef(traceType gxcommon.TraceTypes, fmtStr string, a ...any) {
	cb := g.onTrace
	if cb == nil || int(g.traceLevel) < int(traceType) {
		return
	}
	p := gxcommon.NewTraceEventArgs(traceType, fmt.Sprintf(fmtStr, a...), "")
	cb(nil, *p)
}

func (g *GXRpc) errorf(err error) {
	g.log.Error().Err(err).Msg("transport error")
	if cb := g.onErr; cb != nil {
		cb(nil, err)
	}
}

//nolint:errcheck
func init() {
	// --- English (default) ---
	message.SetString(language.AmericanEnglish, "msg.no_transport", "No transport configured. Please set a transport.")
	message.SetString(language.AmericanEnglish, "msg.invalid_topic_id", "invalid topic id %d: must be 0-62")
	message.SetString(language.AmericanEnglish, "msg.payload_too_large", "payload of %d bytes exceeds the single frame limit of %d")
	message.SetString(language.AmericanEnglish, "msg.topics_in_use", "%d topics are subscribed; cannot shrink the table to %d")

	// --- German (de) ---
	message.SetString(language.German, "msg.no_transport", "Kein Transport konfiguriert. Bitte einen Transport setzen.")
	message.SetString(language.German, "msg.invalid_topic_id", "ungültige Topic-ID %d: erlaubt ist 0-62")
	message.SetString(language.German, "msg.payload_too_large", "Nutzdaten von %d Bytes überschreiten das Rahmenlimit von %d")
	message.SetString(language.German, "msg.topics_in_use", "%d Topics sind abonniert; Tabelle kann nicht auf %d verkleinert werden")

	// --- Finnish (fi) ---
	message.SetString(language.Finnish, "msg.no_transport", "Siirtotietä ei ole määritetty. Aseta siirtotie.")
	message.SetString(language.Finnish, "msg.invalid_topic_id", "virheellinen aihetunniste %d: sallittu 0-62")
	message.SetString(language.Finnish, "msg.payload_too_large", "%d tavun hyötykuorma ylittää kehyksen rajan %d")
	message.SetString(language.Finnish, "msg.topics_in_use", "%d aihetta on tilattu; taulukkoa ei voi pienentää kokoon %d")
}

// Localize messages for the specified language.
// No errors is returned if language is not supported.
func (g *GXRpc) Localize(language language.Tag) {
	g.p = message.NewPrinter(language)
}
