package edverify

import (
	"crypto/subtle"
	"math"

	"catetrust/internal/domain"
)

// Locate returns the operation immediately preceding the current one,
// requiring it to target the given verifier facility.
func Locate(batch domain.BatchContext, facilityID string) (domain.RawOperation, error) {
	index := batch.CurrentIndex()
	if index <= 0 {
		return domain.RawOperation{}, domain.ErrMissingVerificationStep
	}
	op, err := batch.OperationAt(index - 1)
	if err != nil {
		return domain.RawOperation{}, domain.ErrMissingVerificationStep
	}
	if op.FacilityID != facilityID {
		return domain.RawOperation{}, domain.ErrInvalidVerifierFacility
	}
	return op, nil
}

// CrossCheck confirms the co-located verification step was fed exactly the
// claimed signer, digest and signature. Every slot is inspected; the first
// full match wins. Malformed offsets fail hard, mismatched bytes move on to
// the next slot.
func CrossCheck(
	batch domain.BatchContext,
	facilityID string,
	signer domain.Identity,
	digest domain.Digest,
	signature domain.DecisionSignature,
) error {
	op, err := Locate(batch, facilityID)
	if err != nil {
		return err
	}
	return CrossCheckOperation(op, signer, digest, signature)
}

// CrossCheckOperation runs the cross-check against an already-located
// verifier operation. The result depends only on the operation payload and
// the claimed triple, so callers may memoize it.
func CrossCheckOperation(
	op domain.RawOperation,
	signer domain.Identity,
	digest domain.Digest,
	signature domain.DecisionSignature,
) error {
	desc, err := ParseDescriptor(op.Data)
	if err != nil {
		return err
	}

	for _, slot := range desc.Slots {
		matched, err := checkSlot(op.Data, slot, signer, digest, signature)
		if err != nil {
			return err
		}
		if matched {
			return nil
		}
	}
	return domain.ErrSignatureVerificationFailed
}

func checkSlot(
	payload []byte,
	slot SignatureSlot,
	signer domain.Identity,
	digest domain.Digest,
	signature domain.DecisionSignature,
) (bool, error) {
	sigStart, sigEnd, err := slotRange(slot.SignatureOffset, SignatureLen, len(payload))
	if err != nil {
		return false, err
	}
	pubStart, pubEnd, err := slotRange(slot.PublicKeyOffset, PublicKeyLen, len(payload))
	if err != nil {
		return false, err
	}
	if slot.MessageSize != DigestLen {
		return false, domain.ErrInvalidMessageSize
	}
	msgStart, msgEnd, err := slotRange(slot.MessageOffset, int(slot.MessageSize), len(payload))
	if err != nil {
		return false, err
	}

	// All three comparisons always run; a short-circuit here would leak
	// which component mismatched through timing.
	pubOK := subtle.ConstantTimeCompare(payload[pubStart:pubEnd], signer[:])
	sigOK := subtle.ConstantTimeCompare(payload[sigStart:sigEnd], signature[:])
	msgOK := subtle.ConstantTimeCompare(payload[msgStart:msgEnd], digest[:])
	return pubOK&sigOK&msgOK == 1, nil
}

// slotRange computes [start,end) for an offset-table entry. The end is
// computed in the offset's own width with a checked add, so an overflow is
// reported as such rather than wrapping into a bogus in-bounds range.
func slotRange(offset uint16, length int, payloadLen int) (int, int, error) {
	if length < 0 || length > math.MaxUint16 {
		return 0, 0, domain.ErrInvalidVerifierPayload
	}
	if offset > math.MaxUint16-uint16(length) {
		return 0, 0, domain.ErrOffsetOverflow
	}
	end := int(offset) + length
	if end > payloadLen {
		return 0, 0, domain.ErrOffsetOutOfBounds
	}
	return int(offset), end, nil
}
