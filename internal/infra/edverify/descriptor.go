// Package edverify locates the co-located ed25519 verification step inside an
// atomic batch and cross-checks that it authenticated exactly the claimed
// (signer, digest, signature) triple. It never runs the ed25519 math itself;
// the external facility is trusted to have rejected invalid signatures.
package edverify

import (
	"encoding/binary"

	"catetrust/internal/domain"
)

const (
	SignatureLen = 64
	PublicKeyLen = 32
	DigestLen    = 32

	headerLen = 2  // num_signatures + padding
	slotLen   = 14 // 7 little-endian u16 fields
)

// SignatureSlot is one entry of the verifier payload's offset table. Field
// order matches the facility's wire format.
type SignatureSlot struct {
	SignatureOffset     uint16
	SignatureInstrIndex uint16
	PublicKeyOffset     uint16
	PublicKeyInstrIndex uint16
	MessageOffset       uint16
	MessageSize         uint16
	MessageInstrIndex   uint16
}

// Descriptor is the parsed header of a verifier operation payload.
type Descriptor struct {
	NumSignatures uint8
	Slots         []SignatureSlot
}

// ParseDescriptor decodes the fixed verifier payload header. The payload must
// carry at least one signature slot and a zero padding byte.
func ParseDescriptor(data []byte) (Descriptor, error) {
	if len(data) < headerLen {
		return Descriptor{}, domain.ErrInvalidVerifierPayload
	}
	numSignatures := int(data[0])
	padding := data[1]
	if numSignatures == 0 {
		return Descriptor{}, domain.ErrInvalidVerifierPayload
	}
	if padding != 0 {
		return Descriptor{}, domain.ErrInvalidVerifierPayload
	}
	if len(data) < headerLen+numSignatures*slotLen {
		return Descriptor{}, domain.ErrInvalidVerifierPayload
	}

	slots := make([]SignatureSlot, 0, numSignatures)
	for i := 0; i < numSignatures; i++ {
		raw := data[headerLen+i*slotLen:]
		slots = append(slots, SignatureSlot{
			SignatureOffset:     binary.LittleEndian.Uint16(raw[0:2]),
			SignatureInstrIndex: binary.LittleEndian.Uint16(raw[2:4]),
			PublicKeyOffset:     binary.LittleEndian.Uint16(raw[4:6]),
			PublicKeyInstrIndex: binary.LittleEndian.Uint16(raw[6:8]),
			MessageOffset:       binary.LittleEndian.Uint16(raw[8:10]),
			MessageSize:         binary.LittleEndian.Uint16(raw[10:12]),
			MessageInstrIndex:   binary.LittleEndian.Uint16(raw[12:14]),
		})
	}
	return Descriptor{NumSignatures: uint8(numSignatures), Slots: slots}, nil
}
