// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package replay guarantees that every authorized request executes at most
// once. Two guard models are provided: a persistent used-hash set that admits
// unused requests in any order, and a monotonic nonce counter that also
// totally orders them. Consume is atomic with respect to concurrent
// submissions of the same request: exactly one caller wins.
package replay

import (
	"errors"

	"github.com/luxfi/geth/common"
)

// Errors
var (
	ErrAlreadyUsed  = errors.New("request has already been executed")
	ErrInvalidNonce = errors.New("invalid nonce")
)

// Guard tracks consumed requests. id is the canonical request hash, nonce
// the request's nonce field; each guard model keys on one of the two.
//
// Check answers whether the request would be accepted now without consuming
// it; Consume atomically checks and marks. Callers that execute side effects
// between the two must hold their own serialization so no other submission
// interleaves. A non-nil error means the request must not execute.
type Guard interface {
	Check(id common.Hash, nonce uint64) error
	Consume(id common.Hash, nonce uint64) error
	Used(id common.Hash) (bool, error)
}
