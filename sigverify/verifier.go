// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sigverify verifies allocator signatures over domain-separated
// request hashes. Verification is polymorphic over the signature scheme of
// the underlying chain: ECDSA with a recoverable v byte, raw Ed25519, or an
// Ed25519 proof delivered out-of-band as a co-located instruction.
package sigverify

import "errors"

// Errors
var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrMalformedProof   = errors.New("malformed signature instruction")
	ErrMissingProof     = errors.New("missing signature instruction")
	ErrSignerMismatch   = errors.New("signer does not match allocator")
	ErrMessageMismatch  = errors.New("signed message does not match request")
)

// Verifier checks that signer produced sig over a 32-byte digest. It returns
// nil for a valid signature and a taxonomy error otherwise; malformed or
// wrong-length input must never panic. Implementations are pure checks and
// mutate no state.
type Verifier interface {
	Verify(digest [32]byte, sig []byte, signer []byte) error
}
