package protocol

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func samplePacket(chunk []byte) Packet {
	return NewDataPacket(Packet{
		TransferID:  "t-1",
		BaseName:    "report.pdf",
		ContentHash: "deadbeef",
		PartIndex:   1,
		PartCount:   1,
		SeqIndex:    2,
		SeqCount:    3,
	}, chunk)
}

func TestPacketRoundTrip(t *testing.T) {
	chunk := []byte{0x00, 0x01, 0xFF, 0x7F, 0x80}
	in := samplePacket(chunk)

	text, err := EncodePacket(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodePacket(text)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.TransferID != in.TransferID || out.SeqIndex != in.SeqIndex || out.SeqCount != in.SeqCount {
		t.Fatalf("metadata mismatch: got=%+v want=%+v", out, in)
	}
	got, err := out.Chunk()
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}
	if !bytes.Equal(got, chunk) {
		t.Fatalf("chunk bytes mismatch: got=%v want=%v", got, chunk)
	}
}

func TestDecodePacketRejectsForeignContent(t *testing.T) {
	for _, raw := range []string{
		"",
		"some unrelated clipboard text",
		`{"type":"ack","ack_num":3}`,
		`{"type":"finish"}`,
		`{"not":"json"`,
	} {
		if _, err := DecodePacket(raw); err == nil {
			t.Fatalf("expected decode error for %q", raw)
		}
	}
}

func TestDecodePacketMissingFields(t *testing.T) {
	_, err := DecodePacket(`{"type":"data","chunk_num":1,"total_chunks":1,"part_num":1,"total_parts":1}`)
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestEncodePacketRejectsInvalidIndices(t *testing.T) {
	in := samplePacket([]byte("x"))
	in.SeqIndex = 5 // beyond SeqCount
	if _, err := EncodePacket(in); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex, got %v", err)
	}
}

func TestDecodePacketFutureVersion(t *testing.T) {
	in := samplePacket([]byte("x"))
	text, err := EncodePacket(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	bumped := strings.Replace(text, `"version":1`, `"version":99`, 1)
	if _, err := DecodePacket(bumped); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestChunkHashGuard(t *testing.T) {
	in := samplePacket([]byte("hello"))
	in.Payload = "aGVsbG8h" // different bytes, hash no longer matches
	if _, err := in.Chunk(); !errors.Is(err, ErrChunkHashMismatch) {
		t.Fatalf("expected ErrChunkHashMismatch, got %v", err)
	}
}

func TestAckRoundTripAndMatching(t *testing.T) {
	text, err := EncodeAck(Ack{TransferID: "t-1", PartIndex: 2, SeqIndex: 7})
	if err != nil {
		t.Fatalf("encode ack: %v", err)
	}
	ack, err := DecodeAck(text)
	if err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if !ack.Matches("t-1", 2, 7) {
		t.Fatalf("ack should match its own identity: %+v", ack)
	}
	if ack.Matches("t-1", 2, 8) {
		t.Fatal("ack matched wrong sequence index")
	}
	if ack.Matches("t-2", 2, 7) {
		t.Fatal("ack matched wrong transfer")
	}
}

func TestLegacyAckMatchesAnyPart(t *testing.T) {
	ack, err := DecodeAck(`{"type":"ack","ack_num":4}`)
	if err != nil {
		t.Fatalf("decode legacy ack: %v", err)
	}
	if !ack.Matches("anything", 3, 4) {
		t.Fatal("legacy ack should match by sequence index alone")
	}
}

func TestAckNeverDecodesAsPacket(t *testing.T) {
	text, err := EncodeAck(Ack{SeqIndex: 1})
	if err != nil {
		t.Fatalf("encode ack: %v", err)
	}
	if _, err := DecodePacket(text); !errors.Is(err, ErrNotPacket) {
		t.Fatalf("ack decoded as packet: %v", err)
	}

	ptext, err := EncodePacket(samplePacket([]byte("x")))
	if err != nil {
		t.Fatalf("encode packet: %v", err)
	}
	if _, err := DecodeAck(ptext); !errors.Is(err, ErrNotAck) {
		t.Fatalf("packet decoded as ack: %v", err)
	}
}

func TestFinishRoundTrip(t *testing.T) {
	text, err := EncodeFinish("t-9")
	if err != nil {
		t.Fatalf("encode finish: %v", err)
	}
	f, err := DecodeFinish(text)
	if err != nil {
		t.Fatalf("decode finish: %v", err)
	}
	if f.TransferID != "t-9" {
		t.Fatalf("transfer id mismatch: %q", f.TransferID)
	}
	if _, err := DecodePacket(text); err == nil {
		t.Fatal("finish token decoded as data packet")
	}
}
