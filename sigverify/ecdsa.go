// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sigverify

import (
	"math/big"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
)

// SignatureLength is the byte length of an [R || S || V] recoverable signature.
const SignatureLength = 65

// secp256k1HalfN is used to reject malleable high-S signatures.
var secp256k1HalfN = new(big.Int).Rsh(crypto.S256().Params().N, 1)

// ECDSAVerifier verifies 65-byte recoverable secp256k1 signatures. The signer
// is a 20-byte address; the public key recovered from the signature must hash
// to that address.
type ECDSAVerifier struct{}

// Verify implements Verifier.
func (ECDSAVerifier) Verify(digest [32]byte, sig []byte, signer []byte) error {
	if len(sig) != SignatureLength {
		return ErrInvalidSignature
	}
	if len(signer) != common.AddressLength {
		return ErrSignerMismatch
	}

	// Normalize v to {0, 1}; 27/28 is the common transport form.
	v := sig[64]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return ErrInvalidSignature
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if r.Sign() == 0 || s.Sign() == 0 {
		return ErrInvalidSignature
	}
	if s.Cmp(secp256k1HalfN) > 0 {
		return ErrInvalidSignature
	}

	normalized := make([]byte, SignatureLength)
	copy(normalized, sig[:64])
	normalized[64] = v

	pub, err := crypto.SigToPub(digest[:], normalized)
	if err != nil {
		return ErrInvalidSignature
	}

	recovered := common.BytesToAddress(crypto.Keccak256(crypto.FromECDSAPub(pub)[1:])[12:])
	if recovered != common.BytesToAddress(signer) {
		return ErrInvalidSignature
	}
	return nil
}
