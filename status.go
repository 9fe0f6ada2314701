package gxrpc

import "fmt"

// Status is the protocol level result of receiving or publishing a frame.
// A topic handler returns a Status, which is carried back to the remote
// publisher in the acknowledgement frame when one was requested.
type Status byte

const (
	// StatusOK indicates a successfully processed frame.
	StatusOK Status = iota
	// StatusNotSubscribed indicates a frame addressed to a topic that has
	// no registered handler. The frame is dropped.
	StatusNotSubscribed
	// StatusCRCError indicates a frame that failed the integrity check.
	StatusCRCError
	// StatusFrameType is reserved for malformed frame type combinations.
	StatusFrameType
	// StatusAckTimeout indicates that no acknowledgement arrived within the
	// publish deadline.
	StatusAckTimeout
	// StatusProcessing is reserved for handler-reported failures.
	StatusProcessing
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNotSubscribed:
		return "NotSubscribed"
	case StatusCRCError:
		return "CRCError"
	case StatusFrameType:
		return "FrameType"
	case StatusAckTimeout:
		return "AckTimeout"
	case StatusProcessing:
		return "Processing"
	default:
		return fmt.Sprintf("Status(%d)", byte(s))
	}
}

// StatusParse parses a status from its string presentation.
func StatusParse(value string) (Status, error) {
	switch value {
	case "OK":
		return StatusOK, nil
	case "NotSubscribed":
		return StatusNotSubscribed, nil
	case "CRCError":
		return StatusCRCError, nil
	case "FrameType":
		return StatusFrameType, nil
	case "AckTimeout":
		return StatusAckTimeout, nil
	case "Processing":
		return StatusProcessing, nil
	default:
		return StatusOK, fmt.Errorf("invalid status: %q", value)
	}
}
