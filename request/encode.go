// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package request

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
)

// Type hashes bind each struct layout to its field names and order. Reordering
// or retyping a field produces a different hash, which defeats
// parameter-reordering and type-confusion substitutions.
var (
	CallTypeHash = common.BytesToHash(crypto.Keccak256(
		[]byte("Call(address target,bytes payload,uint256 value,bool allowFailure)")))
	CallRequestTypeHash = common.BytesToHash(crypto.Keccak256(
		[]byte("CallRequest(Call[] calls,uint256 nonce,uint256 expiration)")))
	TransferRequestTypeHash = common.BytesToHash(crypto.Keccak256(
		[]byte("TransferRequest(address recipient,address token,uint256 amount,uint256 nonce,uint256 expiration)")))
)

// StructHash returns the canonical hash of the request. The batch field
// commits to each call's content, order and count through a two-level
// hash-of-hashes: individual call hashes are concatenated and hashed again.
// An empty batch hashes the empty byte string, which cannot collide with any
// non-empty batch.
func (r *CallRequest) StructHash() common.Hash {
	callHashes := make([]byte, 0, len(r.Calls)*common.HashLength)
	for i := range r.Calls {
		h := r.Calls[i].hash()
		callHashes = append(callHashes, h[:]...)
	}

	buf := make([]byte, 0, 4*common.HashLength)
	buf = append(buf, CallRequestTypeHash[:]...)
	buf = append(buf, crypto.Keccak256(callHashes)...)
	buf = appendUint64Word(buf, r.Nonce)
	buf = appendUint64Word(buf, uint64(r.Expiration))
	return common.BytesToHash(crypto.Keccak256(buf))
}

// StructHash returns the canonical hash of the transfer request.
func (r *TransferRequest) StructHash() common.Hash {
	amount := r.Amount
	if amount == nil {
		amount = uint256.NewInt(0)
	}
	word := amount.Bytes32()

	buf := make([]byte, 0, 6*common.HashLength)
	buf = append(buf, TransferRequestTypeHash[:]...)
	buf = appendAddressWord(buf, r.Recipient)
	buf = appendAddressWord(buf, r.Token)
	buf = append(buf, word[:]...)
	buf = appendUint64Word(buf, r.Nonce)
	buf = appendUint64Word(buf, uint64(r.Expiration))
	return common.BytesToHash(crypto.Keccak256(buf))
}

// hash commits to a single call. Variable-length payloads are committed by
// their keccak digest rather than inlined, so payload bytes can never be
// confused with adjacent fields.
func (c *Call) hash() common.Hash {
	value := c.Value
	if value == nil {
		value = uint256.NewInt(0)
	}
	word := value.Bytes32()

	buf := make([]byte, 0, 5*common.HashLength)
	buf = append(buf, CallTypeHash[:]...)
	buf = appendAddressWord(buf, c.Target)
	buf = append(buf, crypto.Keccak256(c.Payload)...)
	buf = append(buf, word[:]...)
	buf = appendBoolWord(buf, c.AllowFailure)
	return common.BytesToHash(crypto.Keccak256(buf))
}

// Fixed-width 32-byte words, big-endian. Never varint.

func appendUint64Word(buf []byte, v uint64) []byte {
	var word [common.HashLength]byte
	binary.BigEndian.PutUint64(word[24:], v)
	return append(buf, word[:]...)
}

func appendAddressWord(buf []byte, addr common.Address) []byte {
	var word [common.HashLength]byte
	copy(word[12:], addr.Bytes())
	return append(buf, word[:]...)
}

func appendBoolWord(buf []byte, b bool) []byte {
	var word [common.HashLength]byte
	if b {
		word[31] = 1
	}
	return append(buf, word[:]...)
}
