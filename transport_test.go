package gxrpc

import (
	"bytes"
	"sync"
	"testing"
)

// testTransport is an in-memory Transport. Injected bytes become readable by
// the engine; written bytes are captured, or delivered to a peer transport
// when two are paired.
type testTransport struct {
	mu   sync.Mutex
	rx   []byte
	tx   []byte
	peer *testTransport
}

func (t *testTransport) Available() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rx)
}

func (t *testTransport) ReadByte() (byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.rx) == 0 {
		return 0, false
	}
	b := t.rx[0]
	t.rx = t.rx[1:]
	return b, true
}

func (t *testTransport) Write(p []byte) error {
	if t.peer != nil {
		t.peer.inject(p)
		return nil
	}
	t.mu.Lock()
	t.tx = append(t.tx, p...)
	t.mu.Unlock()
	return nil
}

func (t *testTransport) inject(p []byte) {
	t.mu.Lock()
	t.rx = append(t.rx, p...)
	t.mu.Unlock()
}

func (t *testTransport) sent() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]byte, len(t.tx))
	copy(out, t.tx)
	return out
}

func newTestPair() (*testTransport, *testTransport) {
	a := &testTransport{}
	b := &testTransport{}
	a.peer = b
	b.peer = a
	return a, b
}

func TestByteFifoOrdering(t *testing.T) {
	var f byteFifo
	if _, ok := f.ReadByte(); ok {
		t.Fatal("expected empty fifo")
	}
	f.Append([]byte{1, 2})
	f.Append(nil)
	f.Append([]byte{3})
	if got := f.Available(); got != 3 {
		t.Fatalf("expected 3 available, got %d", got)
	}
	var out []byte
	for {
		b, ok := f.ReadByte()
		if !ok {
			break
		}
		out = append(out, b)
	}
	if !bytes.Equal(out, []byte{1, 2, 3}) {
		t.Fatalf("expected 1 2 3, got % X", out)
	}
	f.Append([]byte{4})
	f.Reset()
	if got := f.Available(); got != 0 {
		t.Fatalf("expected empty fifo after reset, got %d", got)
	}
}
