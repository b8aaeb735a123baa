// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sigverify

import (
	"crypto/rand"
	"testing"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/stretchr/testify/require"
)

func TestVerifyInstruction(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	digest := testDigest("batch request")
	sig := ed25519.Sign(priv, digest[:])
	ix := BuildEd25519Instruction(pub, sig, digest[:])

	require.NoError(t, VerifyInstruction(ix, digest, pub))
	require.NoError(t, InstructionVerifier{}.Verify(digest, ix.Data, pub))
}

func TestVerifyInstructionWrongProgram(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	digest := testDigest("batch request")
	ix := BuildEd25519Instruction(pub, ed25519.Sign(priv, digest[:]), digest[:])
	ix.Program = "secp256k1"
	require.ErrorIs(t, VerifyInstruction(ix, digest, pub), ErrMissingProof)
}

func TestVerifyInstructionMalformed(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	digest := testDigest("batch request")
	sig := ed25519.Sign(priv, digest[:])
	good := BuildEd25519Instruction(pub, sig, digest[:])

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"truncated", func(d []byte) []byte { return d[:ixMinLen-1] }},
		{"multi signature count", func(d []byte) []byte { d[0] = 2; return d }},
		{"shifted signature offset", func(d []byte) []byte { d[2] = ixSigOffset + 1; return d }},
		{"shifted pubkey offset", func(d []byte) []byte { d[6] = ixPubkeyOffset + 1; return d }},
		{"shifted message offset", func(d []byte) []byte { d[10] = ixMsgOffset + 1; return d }},
		{"oversized message", func(d []byte) []byte { d[12] = 33; return d }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, len(good.Data))
			copy(data, good.Data)
			ix := Instruction{Program: Ed25519Program, Data: tt.mutate(data)}
			require.ErrorIs(t, VerifyInstruction(ix, digest, pub), ErrMalformedProof)
		})
	}
}

func TestVerifyInstructionBinding(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	otherPub, otherPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	digest := testDigest("batch request")
	otherDigest := testDigest("some other request")

	// Internally consistent proof under a non-allocator key.
	ix := BuildEd25519Instruction(otherPub, ed25519.Sign(otherPriv, digest[:]), digest[:])
	require.ErrorIs(t, VerifyInstruction(ix, digest, pub), ErrSignerMismatch)

	// Valid allocator signature over the wrong message.
	ix = BuildEd25519Instruction(pub, ed25519.Sign(priv, otherDigest[:]), otherDigest[:])
	require.ErrorIs(t, VerifyInstruction(ix, digest, pub), ErrMessageMismatch)

	// Message field patched to the executing digest without re-signing.
	ix = BuildEd25519Instruction(pub, ed25519.Sign(priv, otherDigest[:]), digest[:])
	require.ErrorIs(t, VerifyInstruction(ix, digest, pub), ErrInvalidSignature)
}
