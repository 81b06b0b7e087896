package protocol

import "errors"

var (
	ErrNotPacket         = errors.New("protocol: not a data packet")
	ErrNotAck            = errors.New("protocol: not an acknowledgement")
	ErrNotFinish         = errors.New("protocol: not a finish token")
	ErrUnsupportedFormat = errors.New("protocol: unsupported format version")
	ErrMissingField      = errors.New("protocol: missing required field")
	ErrInvalidIndex      = errors.New("protocol: invalid index")
	ErrBadPayload        = errors.New("protocol: payload is not valid base64")
	ErrChunkHashMismatch = errors.New("protocol: chunk hash mismatch")
)
