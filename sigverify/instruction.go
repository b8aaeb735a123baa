// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sigverify

import (
	"bytes"
	"encoding/binary"

	"github.com/cloudflare/circl/sign/ed25519"
)

// Some platforms verify signatures in a separate instruction that runs in the
// same atomic transaction as the request execution, instead of taking the
// signature as an inline parameter. The executing side then only sees the
// instruction bytes and must cross-check them: the binding between the proof
// and the request is untrusted input. InstructionVerifier performs those
// checks and additionally re-verifies the Ed25519 signature itself, so a
// fabricated instruction blob can never pass.

// Ed25519Program identifies the signature-verification program a proof
// instruction must target. An instruction for any other program is not a
// signature proof.
const Ed25519Program = "ed25519"

// Ed25519 instruction data layout, single-signature form. Offsets are
// little-endian u16 as emitted by standard signing tooling.
const (
	ixHeaderLen    = 16
	ixPubkeyOffset = 16
	ixSigOffset    = 48
	ixMsgOffset    = 112
	ixMinLen       = ixMsgOffset + 32
)

// Instruction is a signature-verification instruction co-located with the
// request in one atomic transaction.
type Instruction struct {
	Program string // Verification program identifier
	Data    []byte // Program-specific instruction data
}

// BuildEd25519Instruction assembles the canonical single-signature
// verification instruction for pubkey/sig/msg. Off-chain signers and tests
// use this to produce exactly the bytes VerifyInstruction expects.
func BuildEd25519Instruction(pubkey, sig, msg []byte) Instruction {
	data := make([]byte, ixMsgOffset+len(msg))
	data[0] = 1 // signature count

	offsets := data[2:ixHeaderLen]
	binary.LittleEndian.PutUint16(offsets[0:], ixSigOffset)     // signature offset
	binary.LittleEndian.PutUint16(offsets[2:], 0xffff)          // signature instruction index (this ix)
	binary.LittleEndian.PutUint16(offsets[4:], ixPubkeyOffset)  // pubkey offset
	binary.LittleEndian.PutUint16(offsets[6:], 0xffff)          // pubkey instruction index
	binary.LittleEndian.PutUint16(offsets[8:], ixMsgOffset)     // message offset
	binary.LittleEndian.PutUint16(offsets[10:], uint16(len(msg))) // message size
	binary.LittleEndian.PutUint16(offsets[12:], 0xffff)         // message instruction index

	copy(data[ixPubkeyOffset:], pubkey)
	copy(data[ixSigOffset:], sig)
	copy(data[ixMsgOffset:], msg)
	return Instruction{Program: Ed25519Program, Data: data}
}

// VerifyInstruction validates an out-of-band signature proof against the
// currently configured allocator key and the digest actually being executed.
// It fails with distinct errors when the instruction targets the wrong
// program or is structurally invalid (ErrMissingProof / ErrMalformedProof),
// when the embedded key is not the allocator (ErrSignerMismatch), and when
// the embedded message is not the executing request (ErrMessageMismatch).
func VerifyInstruction(ix Instruction, digest [32]byte, allocator []byte) error {
	if ix.Program != Ed25519Program {
		return ErrMissingProof
	}
	data := ix.Data
	if len(data) < ixMinLen {
		return ErrMalformedProof
	}
	if data[0] != 1 {
		return ErrMalformedProof
	}

	offsets := data[2:ixHeaderLen]
	sigOff := binary.LittleEndian.Uint16(offsets[0:])
	pkOff := binary.LittleEndian.Uint16(offsets[4:])
	msgOff := binary.LittleEndian.Uint16(offsets[8:])
	msgSize := binary.LittleEndian.Uint16(offsets[10:])
	if sigOff != ixSigOffset || pkOff != ixPubkeyOffset || msgOff != ixMsgOffset {
		return ErrMalformedProof
	}
	if msgSize != 32 || int(msgOff)+int(msgSize) > len(data) {
		return ErrMalformedProof
	}

	pubkey := data[ixPubkeyOffset : ixPubkeyOffset+ed25519.PublicKeySize]
	sig := data[ixSigOffset : ixSigOffset+ed25519.SignatureSize]
	msg := data[ixMsgOffset : ixMsgOffset+32]

	// An attacker-supplied key in the auxiliary slot must not pass even if
	// the signature over the message is internally consistent.
	if !bytes.Equal(pubkey, allocator) {
		return ErrSignerMismatch
	}
	// Likewise a valid allocator signature over some other message.
	if !bytes.Equal(msg, digest[:]) {
		return ErrMessageMismatch
	}
	if !ed25519.Verify(ed25519.PublicKey(pubkey), msg, sig) {
		return ErrInvalidSignature
	}
	return nil
}

// InstructionVerifier adapts the co-instruction proof to the Verifier
// interface: the sig argument carries the raw instruction data of an
// Ed25519Program instruction from the same atomic unit.
type InstructionVerifier struct{}

// Verify implements Verifier.
func (InstructionVerifier) Verify(digest [32]byte, sig []byte, signer []byte) error {
	return VerifyInstruction(Instruction{Program: Ed25519Program, Data: sig}, digest, signer)
}
