package protocol

// FormatVersion is the current packet format version. Decoders accept
// packets with an equal or absent version field; anything newer is
// rejected so mixed deployments fail loudly instead of corrupting data.
const FormatVersion = 1

const (
	typeData   = "data"
	typeAck    = "ack"
	typeFinish = "finish"
)

// Packet is one chunk of a transfer in flight on the shared channel.
//
// Wire field names stay compatible with the original JSON format where
// that format has them; the part, dividing, transfer identity and
// version fields are additive.
type Packet struct {
	Version     int    `json:"version,omitempty"`
	Type        string `json:"type"`
	TransferID  string `json:"transfer_id"`
	BaseName    string `json:"base_name"`
	ContentHash string `json:"original_file_hash"`
	ArchiveType string `json:"archive_type,omitempty"`

	PartIndex int    `json:"part_num"`
	PartCount int    `json:"total_parts"`
	PartName  string `json:"part_name,omitempty"`

	// Dividing indices are a coarse progress tier only; zero when the
	// sender runs single-tier.
	DividingIndex int `json:"dividing_num,omitempty"`
	DividingCount int `json:"total_dividing,omitempty"`

	SeqIndex int `json:"chunk_num"`
	SeqCount int `json:"total_chunks"`

	// PayloadHash is the hex SHA-256 of the base64 payload text, a
	// per-chunk corruption guard.
	PayloadHash string `json:"hash"`
	Payload     string `json:"payload"`
}

// Ack acknowledges the packet identified by part and sequence index.
type Ack struct {
	Type       string `json:"type"`
	TransferID string `json:"transfer_id,omitempty"`
	PartIndex  int    `json:"part_num,omitempty"`
	SeqIndex   int    `json:"ack_num"`
}

// Matches reports whether a is an acknowledgement for the given packet
// identity. A missing transfer id or part index (legacy single-part
// acks) matches any.
func (a Ack) Matches(transferID string, partIndex, seqIndex int) bool {
	if a.SeqIndex != seqIndex {
		return false
	}
	if a.TransferID != "" && a.TransferID != transferID {
		return false
	}
	if a.PartIndex != 0 && a.PartIndex != partIndex {
		return false
	}
	return true
}

// Finish is the best-effort end-of-transfer hint published after the
// final acknowledgement. Receiver completion stays count-based.
type Finish struct {
	Type       string `json:"type"`
	TransferID string `json:"transfer_id,omitempty"`
}
