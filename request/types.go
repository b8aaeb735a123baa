// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package request defines the signable units of the relay depository: batched
// call requests and single-asset transfer requests, together with their
// canonical byte encoding and struct hashing. The encoding is a wire contract:
// off-chain allocator services must reproduce these hashes byte-for-byte.
package request

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Errors
var (
	ErrNilAmount = errors.New("amount cannot be nil")
	ErrNilValue  = errors.New("call value cannot be nil")
)

// Call is one atomic sub-operation of a CallRequest: an optional value
// transfer to Target plus an opaque payload executed at Target. Once a
// request is signed every field is immutable; mutating any field changes
// the request hash and invalidates the signature.
type Call struct {
	Target       common.Address // Destination account
	Payload      []byte         // Opaque calldata for the target
	Value        *uint256.Int   // Native value attached to the call
	AllowFailure bool           // Tolerate failure of this call within the batch
}

// CallRequest is an ordered batch of calls authorized by a single allocator
// signature. Calls execute strictly in array order.
type CallRequest struct {
	Calls      []Call // Ordered sub-operations (may be empty)
	Nonce      uint64 // Uniqueness tag, scoped by the replay guard model
	Expiration int64  // Unix timestamp; request is invalid once now >= Expiration
}

// TransferRequest authorizes a single asset movement out of the vault.
// A zero Token address denotes the native currency.
type TransferRequest struct {
	Recipient  common.Address // Receiver of the funds
	Token      common.Address // Asset contract, zero for native
	Amount     *uint256.Int   // Amount to transfer
	Nonce      uint64         // Uniqueness tag
	Expiration int64          // Unix timestamp; request is invalid once now >= Expiration
}

// CallResult is the per-call outcome of a batch execution.
type CallResult struct {
	Success    bool   // Whether the call completed
	ReturnData []byte // Handler return data, or failure data for tolerated failures
}

// Validate checks structural invariants that must hold before a request is
// encoded or executed.
func (r *CallRequest) Validate() error {
	for i := range r.Calls {
		if r.Calls[i].Value == nil {
			return ErrNilValue
		}
	}
	return nil
}

// Validate checks structural invariants of a transfer request.
func (r *TransferRequest) Validate() error {
	if r.Amount == nil {
		return ErrNilAmount
	}
	return nil
}

// IsNative reports whether the transfer moves native currency.
func (r *TransferRequest) IsNative() bool {
	return r.Token == (common.Address{})
}
