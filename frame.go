package gxrpc

// Protocol framing bytes.
const (
	frameStart      byte = 0x7E
	escapeCharacter byte = 0x7F
)

// Topic identifier limits. Identifier 63 is never a subscribable topic; it
// marks acknowledgement frames on the wire.
const (
	// MaxTopicID is the highest topic identifier that can be subscribed.
	MaxTopicID uint8 = 62
	// MaxPayload is the largest payload a single frame can carry.
	MaxPayload = 255

	ackTopicID uint8 = 63
)

// frameInfo is the logical info byte of a frame: bits 0-5 carry the topic
// identifier, bit 6 the isAck flag and bit 7 the ackReq flag.
type frameInfo byte

const (
	infoAckFlag    frameInfo = 0x40
	infoAckReqFlag frameInfo = 0x80
)

func makeFrameInfo(topicID uint8, isAck, ackReq bool) frameInfo {
	info := frameInfo(topicID & 0x3F)
	if isAck {
		info |= infoAckFlag
	}
	if ackReq {
		info |= infoAckReqFlag
	}
	return info
}

func (f frameInfo) topicID() uint8 {
	return uint8(f) & 0x3F
}

func (f frameInfo) isAck() bool {
	return f&infoAckFlag != 0
}

func (f frameInfo) ackReq() bool {
	return f&infoAckReqFlag != 0
}
