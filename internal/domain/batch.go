package domain

import "fmt"

// Ed25519VerifierFacility identifies the external signature-verification
// facility. An operation in the batch must carry this facility ID for the
// locator to accept it as the verification step.
const Ed25519VerifierFacility = "ed25519-verifier/v1"

// RawOperation is one operation inside an atomic batch: the facility it was
// issued against and its raw payload.
type RawOperation struct {
	FacilityID string
	Data       []byte
}

// BatchContext exposes the ordered log of operations submitted atomically
// together, so the core can inspect sibling steps without depending on any
// particular execution environment's introspection mechanism.
type BatchContext interface {
	CurrentIndex() int
	OperationAt(index int) (RawOperation, error)
}

// OperationBatch is the plain BatchContext used by the HTTP layer and tests.
type OperationBatch struct {
	Operations []RawOperation
	Index      int
}

func (b *OperationBatch) CurrentIndex() int { return b.Index }

func (b *OperationBatch) OperationAt(index int) (RawOperation, error) {
	if index < 0 || index >= len(b.Operations) {
		return RawOperation{}, fmt.Errorf("operation index %d out of range [0,%d)", index, len(b.Operations))
	}
	return b.Operations[index], nil
}

var _ BatchContext = (*OperationBatch)(nil)
