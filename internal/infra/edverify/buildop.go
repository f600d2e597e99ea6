package edverify

import (
	"crypto/ed25519"
	"encoding/binary"

	"catetrust/internal/domain"
)

// BuildOperation assembles the verifier operation the external facility would
// have executed for one (signer, digest, signature) triple: a single-slot
// offset table followed by the public key, signature and message bytes. The
// facility rejects invalid signatures before its operation ever lands in a
// batch, so the real ed25519 check runs here too.
func BuildOperation(
	signer domain.Identity,
	digest domain.Digest,
	signature domain.DecisionSignature,
) (domain.RawOperation, error) {
	if !ed25519.Verify(ed25519.PublicKey(signer[:]), digest[:], signature[:]) {
		return domain.RawOperation{}, domain.ErrSignatureVerificationFailed
	}

	const (
		pubOffset = headerLen + slotLen
		sigOffset = pubOffset + PublicKeyLen
		msgOffset = sigOffset + SignatureLen
	)

	data := make([]byte, msgOffset+DigestLen)
	data[0] = 1 // num_signatures
	data[1] = 0 // padding

	slot := data[headerLen:]
	binary.LittleEndian.PutUint16(slot[0:2], sigOffset)
	binary.LittleEndian.PutUint16(slot[2:4], 0)
	binary.LittleEndian.PutUint16(slot[4:6], pubOffset)
	binary.LittleEndian.PutUint16(slot[6:8], 0)
	binary.LittleEndian.PutUint16(slot[8:10], msgOffset)
	binary.LittleEndian.PutUint16(slot[10:12], DigestLen)
	binary.LittleEndian.PutUint16(slot[12:14], 0)

	copy(data[pubOffset:], signer[:])
	copy(data[sigOffset:], signature[:])
	copy(data[msgOffset:], digest[:])

	return domain.RawOperation{
		FacilityID: domain.Ed25519VerifierFacility,
		Data:       data,
	}, nil
}
