package protocol

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// NewDataPacket builds a data packet around raw chunk bytes, filling in
// the payload encoding and per-chunk hash.
func NewDataPacket(meta Packet, chunk []byte) Packet {
	p := meta
	p.Version = FormatVersion
	p.Type = typeData
	p.Payload = base64.StdEncoding.EncodeToString(chunk)
	p.PayloadHash = hashText(p.Payload)
	return p
}

// EncodePacket serializes a data packet to channel text.
func EncodePacket(p Packet) (string, error) {
	if err := validatePacket(p); err != nil {
		return "", err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode packet: %w", err)
	}
	return string(raw), nil
}

// DecodePacket parses channel text into a data packet. Content that is
// not a well-formed data packet yields ErrNotPacket (or a more specific
// sentinel) and must be treated as foreign clipboard content.
func DecodePacket(raw string) (Packet, error) {
	var p Packet
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Packet{}, ErrNotPacket
	}
	if p.Type != typeData {
		return Packet{}, ErrNotPacket
	}
	if p.Version > FormatVersion {
		return Packet{}, ErrUnsupportedFormat
	}
	if err := validatePacket(p); err != nil {
		return Packet{}, err
	}
	return p, nil
}

// Chunk decodes the payload back to raw bytes, verifying the per-chunk
// hash first.
func (p Packet) Chunk() ([]byte, error) {
	if hashText(p.Payload) != p.PayloadHash {
		return nil, ErrChunkHashMismatch
	}
	data, err := base64.StdEncoding.DecodeString(p.Payload)
	if err != nil {
		return nil, ErrBadPayload
	}
	return data, nil
}

// EncodeAck serializes an acknowledgement token.
func EncodeAck(a Ack) (string, error) {
	a.Type = typeAck
	if a.SeqIndex < 1 {
		return "", ErrInvalidIndex
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("encode ack: %w", err)
	}
	return string(raw), nil
}

// DecodeAck parses channel text into an acknowledgement token.
func DecodeAck(raw string) (Ack, error) {
	var a Ack
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return Ack{}, ErrNotAck
	}
	if a.Type != typeAck {
		return Ack{}, ErrNotAck
	}
	if a.SeqIndex < 1 {
		return Ack{}, ErrInvalidIndex
	}
	return a, nil
}

// EncodeFinish serializes the end-of-transfer hint.
func EncodeFinish(transferID string) (string, error) {
	raw, err := json.Marshal(Finish{Type: typeFinish, TransferID: transferID})
	if err != nil {
		return "", fmt.Errorf("encode finish: %w", err)
	}
	return string(raw), nil
}

// DecodeFinish parses channel text into the end-of-transfer hint.
func DecodeFinish(raw string) (Finish, error) {
	var f Finish
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return Finish{}, ErrNotFinish
	}
	if f.Type != typeFinish {
		return Finish{}, ErrNotFinish
	}
	return f, nil
}

func validatePacket(p Packet) error {
	if p.TransferID == "" || p.BaseName == "" || p.ContentHash == "" {
		return ErrMissingField
	}
	if p.SeqIndex < 1 || p.SeqCount < 1 || p.SeqIndex > p.SeqCount {
		return ErrInvalidIndex
	}
	if p.PartIndex < 1 || p.PartCount < 1 || p.PartIndex > p.PartCount {
		return ErrInvalidIndex
	}
	if p.PayloadHash == "" {
		return ErrMissingField
	}
	return nil
}

func hashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
