package gxrpc

import (
	"github.com/Gurux/gxcommon-go"
)

// Transport is the byte channel the protocol engine drives. Available and
// ReadByte must not block; Write may block until the channel can take the
// data. Escaping and checksum handling are the engine's responsibility, a
// Transport only moves raw bytes.
type Transport interface {
	// Available returns the number of bytes ready to be read.
	Available() int
	// ReadByte pops the next received byte. It reports false when no byte
	// is buffered.
	ReadByte() (byte, bool)
	// Write sends raw bytes to the peer.
	Write(p []byte) error
}

// mediaTransport adapts a Gurux media component to the Transport contract.
// Received data is pushed by the media's receive event into a fifo that the
// engine drains; writes go directly through the media.
type mediaTransport struct {
	media gxcommon.IGXMedia
	rx    byteFifo
}

// NewMediaTransport wraps a Gurux media component (gxserial, gxnet) so the
// protocol can run over it. The media's OnReceived handler is claimed by the
// adapter; open and close the media through its own API.
func NewMediaTransport(media gxcommon.IGXMedia) Transport {
	t := &mediaTransport{media: media}
	media.SetOnReceived(func(m gxcommon.IGXMedia, e gxcommon.ReceiveEventArgs) {
		t.rx.Append(e.Data())
	})
	return t
}

// Available implements Transport.
func (t *mediaTransport) Available() int {
	return t.rx.Available()
}

// ReadByte implements Transport.
func (t *mediaTransport) ReadByte() (byte, bool) {
	return t.rx.ReadByte()
}

// Write implements Transport.
func (t *mediaTransport) Write(p []byte) error {
	return t.media.Send(p, "")
}
