// Package gxrpc provides a topic based publish/subscribe RPC protocol for
// Gurux media components and other byte oriented serial channels. It frames
// variable-length binary payloads with a start marker, byte-stuffing escapes
// and a CRC-16/CCITT checksum, dispatches validated frames to registered
// topic handlers, and supports optional per-publish acknowledgement with a
// blocking wait and timeout.
//
// Features
//
//   - Topics: up to 63 topic identifiers (0-62), fixed-capacity table sized
//     at construction. Identifier 63 is reserved for acknowledgement frames.
//   - Framing: start marker 0x7E, escape marker 0x7F, single frame payloads
//     of 0-255 bytes, CRC-16/CCITT over the logical frame bytes.
//   - Acknowledgement: Publish can request a confirmation frame carrying the
//     status returned by the remote topic handler.
//   - Transports: any Gurux media (gxserial, gxnet) through NewMediaTransport,
//     or a custom Transport implementation.
//   - Tracing: configurable trace level and trace/error event callbacks, plus
//     optional structured logging through a zerolog logger.
//   - Metrics: frame, drop and timeout counters exported through Prometheus
//     and available in-process via Statistics.
//
// # Construction
//
// Use NewGXRpc to create a protocol engine on a transport. Additional options
// (tracing, logging, clock, acknowledge timeout) can be configured through
// setters.
//
// Example
//
//	media := gxserial.NewGXSerial("COM1", gxcommon.BaudRate115200, 8, gxcommon.ParityNone, gxcommon.StopBitsOne)
//	if err := media.Open(); err != nil {
//	    // handle connect error
//	}
//	defer media.Close()
//
//	rpc := gxrpc.NewGXRpc(gxrpc.NewMediaTransport(media), 10)
//	rpc.Subscribe(4, func(topicID uint8, data []byte, status gxrpc.Status) gxrpc.Status {
//	    // handle data; copy it if it is needed after this call returns.
//	    return gxrpc.StatusOK
//	})
//
//	// service incoming frames periodically
//	go func() {
//	    for {
//	        rpc.Loop()
//	        time.Sleep(time.Millisecond)
//	    }
//	}()
//
//	status, err := rpc.Publish(7, []byte{0x01, 0x02}, true, 200*time.Millisecond)
//
// # Handler contract
//
// A topic handler receives the topic identifier, the payload bytes and the
// receive status, and returns the status that is sent back in the
// acknowledgement frame when the publisher requested one. The payload slice
// is only valid for the duration of the call; the receiver reuses it once the
// next frame begins. Handlers must not call Publish or Loop on the same
// engine; the protocol is single-threaded by design and the call would
// deadlock.
//
// # Errors and statuses
//
// Framing problems never abort the process. A frame for an unknown topic is
// dropped, a checksum mismatch is reported to the handler as StatusCRCError,
// and a missing acknowledgement is reported to the publisher as
// StatusAckTimeout. Go errors are returned only for invalid arguments,
// settings parsing and transport write failures. Error messages are
// lowercased per Go style guidelines and localized through Localize.
package gxrpc
