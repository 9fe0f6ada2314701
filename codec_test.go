package gxrpc

import (
	"bytes"
	"testing"
)

type capture struct {
	called int
	topic  uint8
	data   []byte
	status Status
	ret    Status
}

func (c *capture) handler(topicID uint8, data []byte, status Status) Status {
	c.called++
	c.topic = topicID
	c.data = append([]byte(nil), data...)
	c.status = status
	return c.ret
}

func encodeTestFrame(info frameInfo, payload []byte) []byte {
	var e frameEncoder
	return append([]byte(nil), e.encode(info, payload)...)
}

func TestRoundTripAllTopics(t *testing.T) {
	payloads := [][]byte{
		nil,
		{0x00},
		{0x7E, 0x7F, 0x7E, 0x7F},
		bytes.Repeat([]byte{0xA5}, 255),
	}
	tr := &testTransport{}
	g := NewGXRpc(tr, 63)
	caps := make([]*capture, 63)
	for id := uint8(0); id <= 62; id++ {
		caps[id] = &capture{}
		if !g.Subscribe(id, caps[id].handler) {
			t.Fatalf("subscribe %d failed", id)
		}
	}
	for id := uint8(0); id <= 62; id++ {
		for _, payload := range payloads {
			c := caps[id]
			c.called = 0
			tr.inject(encodeTestFrame(makeFrameInfo(id, false, false), payload))
			g.Loop()
			if c.called != 1 {
				t.Fatalf("topic %d payload %d bytes: handler called %d times", id, len(payload), c.called)
			}
			if c.topic != id {
				t.Fatalf("topic %d: handler saw topic %d", id, c.topic)
			}
			if c.status != StatusOK {
				t.Fatalf("topic %d: expected StatusOK, got %s", id, c.status)
			}
			if !bytes.Equal(c.data, payload) {
				t.Fatalf("topic %d: payload mismatch: sent % X got % X", id, payload, c.data)
			}
		}
	}
}

func TestEscapingDoublesMarkerBytes(t *testing.T) {
	tests := []struct {
		name   string
		marker byte
	}{
		{name: "start marker payload", marker: 0x7E},
		{name: "escape marker payload", marker: 0x7F},
	}
	const n = 8
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload := bytes.Repeat([]byte{tc.marker}, n)
			frame := encodeTestFrame(makeFrameInfo(5, false, false), payload)
			// start, info and length are unescaped for these values.
			if frame[0] != frameStart || frame[1] != 0x05 || frame[2] != n {
				t.Fatalf("unexpected frame head % X", frame[:3])
			}
			field := frame[3 : 3+2*n]
			want := bytes.Repeat([]byte{escapeCharacter, tc.marker}, n)
			if !bytes.Equal(field, want) {
				t.Fatalf("data field % X, want % X", field, want)
			}

			// And the frame decodes back to the original bytes.
			tr := &testTransport{}
			g := NewGXRpc(tr, 5)
			c := &capture{}
			g.Subscribe(5, c.handler)
			tr.inject(frame)
			g.Loop()
			if c.called != 1 || !bytes.Equal(c.data, payload) {
				t.Fatalf("decode mismatch: called %d data % X", c.called, c.data)
			}
		})
	}
}

func TestZeroLengthFrame(t *testing.T) {
	tr := &testTransport{}
	g := NewGXRpc(tr, 5)
	c := &capture{}
	g.Subscribe(9, c.handler)
	tr.inject(encodeTestFrame(makeFrameInfo(9, false, false), nil))
	g.Loop()
	if c.called != 1 {
		t.Fatalf("handler called %d times", c.called)
	}
	if len(c.data) != 0 || c.status != StatusOK {
		t.Fatalf("expected empty payload with StatusOK, got %d bytes %s", len(c.data), c.status)
	}
}

func TestChecksumRejection(t *testing.T) {
	flip := func(b byte) byte {
		f := b ^ 0x01
		if f == frameStart || f == escapeCharacter {
			f = b ^ 0x02
		}
		return f
	}
	tests := []struct {
		name  string
		index func(frame []byte) int
	}{
		{name: "payload byte corrupted", index: func(frame []byte) int { return 3 }},
		{name: "crc byte corrupted", index: func(frame []byte) int { return len(frame) - 1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := &testTransport{}
			g := NewGXRpc(tr, 5)
			c := &capture{}
			g.Subscribe(3, c.handler)

			// Acknowledge requested, but a corrupt frame must never be acknowledged.
			frame := encodeTestFrame(makeFrameInfo(3, false, true), []byte{1, 2, 3, 4})
			i := tc.index(frame)
			frame[i] = flip(frame[i])
			tr.inject(frame)
			g.Loop()

			if c.called != 1 {
				t.Fatalf("handler called %d times", c.called)
			}
			if c.status != StatusCRCError {
				t.Fatalf("expected StatusCRCError, got %s", c.status)
			}
			if out := tr.sent(); len(out) != 0 {
				t.Fatalf("acknowledge was sent for a corrupt frame: % X", out)
			}
			if stats := g.Statistics(); stats.CRCErrors != 1 {
				t.Fatalf("expected 1 CRC error, got %d", stats.CRCErrors)
			}
		})
	}
}

func TestUnknownTopicDropped(t *testing.T) {
	tr := &testTransport{}
	g := NewGXRpc(tr, 5)
	c := &capture{}
	g.Subscribe(1, c.handler)

	tr.inject(encodeTestFrame(makeFrameInfo(9, false, true), []byte{0xAA, 0xBB}))
	g.Loop()
	if c.called != 0 {
		t.Fatal("handler invoked for a topic it is not subscribed to")
	}
	if out := tr.sent(); len(out) != 0 {
		t.Fatalf("acknowledge sent for an unsubscribed topic: % X", out)
	}
	if stats := g.Statistics(); stats.DroppedFrames != 1 {
		t.Fatalf("expected 1 dropped frame, got %d", stats.DroppedFrames)
	}

	// The receiver is back in idle and processes the next frame normally.
	tr.inject(encodeTestFrame(makeFrameInfo(1, false, false), []byte{0x01}))
	g.Loop()
	if c.called != 1 || !bytes.Equal(c.data, []byte{0x01}) {
		t.Fatalf("valid frame after a dropped one not dispatched: called %d data % X", c.called, c.data)
	}
}

func TestStartMarkerAbandonsFrameInProgress(t *testing.T) {
	tr := &testTransport{}
	g := NewGXRpc(tr, 5)
	c := &capture{}
	g.Subscribe(2, c.handler)

	truncated := encodeTestFrame(makeFrameInfo(2, false, false), []byte{9, 9, 9, 9})
	tr.inject(truncated[:len(truncated)-4])
	tr.inject(encodeTestFrame(makeFrameInfo(2, false, false), []byte{1, 2}))
	g.Loop()

	if c.called != 1 {
		t.Fatalf("handler called %d times, want 1", c.called)
	}
	if !bytes.Equal(c.data, []byte{1, 2}) {
		t.Fatalf("expected the second frame's payload, got % X", c.data)
	}
	if c.status != StatusOK {
		t.Fatalf("expected StatusOK, got %s", c.status)
	}
}

func TestAcknowledgeEmittedWhenRequested(t *testing.T) {
	tr := &testTransport{}
	g := NewGXRpc(tr, 5)
	c := &capture{ret: StatusProcessing}
	g.Subscribe(6, c.handler)

	tr.inject(encodeTestFrame(makeFrameInfo(6, false, true), []byte{0x10}))
	g.Loop()
	if c.called != 1 {
		t.Fatalf("handler called %d times", c.called)
	}
	// The emitted acknowledge carries the handler's returned status.
	want := encodeTestFrame(makeFrameInfo(ackTopicID, true, false), []byte{byte(StatusProcessing)})
	if got := tr.sent(); !bytes.Equal(got, want) {
		t.Fatalf("acknowledge frame % X, want % X", got, want)
	}
}

func TestNoAcknowledgeWithoutRequest(t *testing.T) {
	tr := &testTransport{}
	g := NewGXRpc(tr, 5)
	c := &capture{}
	g.Subscribe(6, c.handler)
	tr.inject(encodeTestFrame(makeFrameInfo(6, false, false), []byte{0x10}))
	g.Loop()
	if out := tr.sent(); len(out) != 0 {
		t.Fatalf("unexpected transmission: % X", out)
	}
}
