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
	"github.com/Gurux/gxcommon-go"
)

// frameEncoder serializes one outgoing frame at a time into a reusable
// buffer, escaping every byte of the info, length and data fields and
// accumulating the checksum over their logical values. The start marker is
// written unescaped and the checksum bytes are outside their own coverage.
type frameEncoder struct {
	crc crc16
	buf []byte
}

func (e *frameEncoder) writeRaw(b byte) {
	e.buf = append(e.buf, b)
}

func (e *frameEncoder) writeEscaped(b byte, accumulate bool) {
	if b == frameStart || b == escapeCharacter {
		e.buf = append(e.buf, escapeCharacter)
	}
	e.buf = append(e.buf, b)
	if accumulate {
		e.crc.add(b)
	}
}

// encode builds the wire presentation of a frame. The returned slice aliases
// the encoder's buffer and is valid until the next encode call.
func (e *frameEncoder) encode(info frameInfo, payload []byte) []byte {
	e.buf = e.buf[:0]
	e.crc.reset()
	e.writeRaw(frameStart)
	e.writeEscaped(byte(info), true)
	e.writeEscaped(byte(len(payload)), true)
	for _, b := range payload {
		e.writeEscaped(b, true)
	}
	sum := e.crc.calc()
	e.writeEscaped(byte(sum>>8), false)
	e.writeEscaped(byte(sum), false)
	return e.buf
}

// Receive state machine states, one logical byte consumed per transition.
type rxState int

const (
	stateIdle rxState = iota
	stateReceivingInfo
	stateReceivingLength
	stateReceivingData
	stateReceivingCRC
)

// rxSession is the state of the one frame currently in flight on the receive
// side. It is owned by the engine and fully reset whenever a new start marker
// arrives, so a payload buffer is never retained across two receptions.
type rxSession struct {
	state         rxState
	pendingEscape bool

	info   frameInfo
	topic  *topicEntry
	data   []byte
	length int
	count  int
	status Status

	crc         crc16
	receivedCRC uint16
	gotCRCHigh  bool
}

// feed consumes one raw wire byte. Unescaping happens here, at the read
// boundary: an escape marker makes the next byte literal, and an unescaped
// start marker begins a new frame from any state, abandoning a frame in
// progress.
func (g *GXRpc) feed(raw byte) {
	g.bytesReceived++
	s := &g.rx
	if !s.pendingEscape {
		switch raw {
		case escapeCharacter:
			s.pendingEscape = true
			return
		case frameStart:
			g.beginFrame()
			return
		}
	}
	s.pendingEscape = false

	switch s.state {
	case stateIdle:
		// Noise between frames; only an unescaped start marker leaves idle.
	case stateReceivingInfo:
		g.stepInfo(raw)
	case stateReceivingLength:
		g.stepLength(raw)
	case stateReceivingData:
		g.stepData(raw)
	case stateReceivingCRC:
		g.stepCRC(raw)
	}
}

func (g *GXRpc) beginFrame() {
	s := &g.rx
	s.state = stateReceivingInfo
	s.status = StatusOK
	s.topic = nil
	s.data = nil
	s.crc.reset()
}

func (g *GXRpc) stepInfo(b byte) {
	s := &g.rx
	s.crc.add(b)
	s.info = frameInfo(b)
	if s.info.isAck() {
		// The topic field carries no meaning in an acknowledgement frame.
		s.state = stateReceivingLength
		return
	}
	s.topic = g.topics.find(s.info.topicID())
	if s.topic == nil {
		s.status = StatusNotSubscribed
		s.state = stateIdle
		g.stats.DroppedFrames++
		recordDropped("not_subscribed")
		g.tracef(gxcommon.TraceTypesInfo, "RX: dropped frame for topic %d: %s", s.info.topicID(), s.status)
		return
	}
	s.state = stateReceivingLength
}

func (g *GXRpc) stepLength(b byte) {
	s := &g.rx
	s.crc.add(b)
	s.length = int(b)
	s.count = 0
	s.data = make([]byte, s.length)
	if s.length == 0 {
		s.state = stateReceivingCRC
		s.gotCRCHigh = false
		return
	}
	s.state = stateReceivingData
}

func (g *GXRpc) stepData(b byte) {
	s := &g.rx
	if s.data == nil {
		s.state = stateIdle
		return
	}
	s.crc.add(b)
	s.data[s.count] = b
	s.count++
	if s.count == s.length {
		s.state = stateReceivingCRC
		s.gotCRCHigh = false
	}
}

// stepCRC assembles the received checksum high byte first, validates the
// frame and routes it: valid acknowledgements complete a pending publish
// wait, valid data frames are dispatched (and acknowledged when requested),
// corrupt data frames are dispatched with StatusCRCError and never
// acknowledged, corrupt acknowledgements are dropped silently.
func (g *GXRpc) stepCRC(b byte) {
	s := &g.rx
	if !s.gotCRCHigh {
		s.receivedCRC = uint16(b) << 8
		s.gotCRCHigh = true
		return
	}
	s.receivedCRC |= uint16(b)

	valid := s.receivedCRC == s.crc.calc()
	switch {
	case valid && s.info.isAck():
		g.ackSeen = true
		g.ackStatus = StatusOK
		if len(s.data) > 0 {
			g.ackStatus = Status(s.data[0])
		}
		g.stats.FramesReceived++
		recordFrame("rx", g.ackStatus)
		g.log.Debug().Str("dir", "rx").Str("status", g.ackStatus.String()).Msg("acknowledge received")
	case valid:
		s.status = StatusOK
		g.stats.FramesReceived++
		g.dispatch()
		recordFrame("rx", s.status)
		if s.info.ackReq() {
			g.sendAcknowledgeFrame(s.status)
		}
	case !s.info.isAck():
		s.status = StatusCRCError
		g.stats.CRCErrors++
		recordDropped("crc")
		g.tracef(gxcommon.TraceTypesError, "RX: checksum mismatch on topic %d: got %04X want %04X",
			s.info.topicID(), s.receivedCRC, s.crc.calc())
		// The handler is still informed; the collected payload bytes are
		// unreliable in this path.
		g.dispatch()
	default:
		// Corrupt acknowledgement, nothing to record.
		g.stats.CRCErrors++
		recordDropped("crc")
	}
	s.state = stateIdle
}

// dispatch invokes the topic handler for the frame in flight. The handler's
// return value replaces the session status, which is what a requested
// acknowledgement carries back.
func (g *GXRpc) dispatch() {
	s := &g.rx
	if s.topic == nil || s.topic.handler == nil || s.data == nil {
		return
	}
	g.log.Debug().Str("dir", "rx").
		Uint8("topic", s.info.topicID()).
		Int("len", len(s.data)).
		Str("status", s.status.String()).
		Msg("frame dispatched")
	s.status = s.topic.handler(s.info.topicID(), s.data, s.status)
}

func (g *GXRpc) sendAcknowledgeFrame(status Status) {
	frame := g.enc.encode(makeFrameInfo(ackTopicID, true, false), []byte{byte(status)})
	if err := g.writeFrame(frame, status); err != nil {
		g.errorf(err)
	}
}
