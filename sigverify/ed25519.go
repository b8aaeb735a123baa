// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sigverify

import "github.com/cloudflare/circl/sign/ed25519"

// Ed25519Verifier verifies raw 64-byte Ed25519 signatures against a stored
// 32-byte public key. The message is the digest itself.
type Ed25519Verifier struct{}

// Verify implements Verifier.
func (Ed25519Verifier) Verify(digest [32]byte, sig []byte, signer []byte) error {
	if len(sig) != ed25519.SignatureSize {
		return ErrInvalidSignature
	}
	if len(signer) != ed25519.PublicKeySize {
		return ErrSignerMismatch
	}
	if !ed25519.Verify(ed25519.PublicKey(signer), digest[:], sig) {
		return ErrInvalidSignature
	}
	return nil
}
