// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package replay

import (
	"encoding/binary"
	"sync"

	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
)

// nonceCounterKey stores the last consumed nonce.
var nonceCounterKey = []byte("nonce_counter")

// NonceGuard is the monotonic counter guard model: only the request whose
// nonce equals counter+1 is accepted, which totally orders requests. Batches
// of requests must be submitted in strictly increasing nonce order or the
// later ones fail.
type NonceGuard struct {
	db database.Database
	mu sync.Mutex
}

// NewNonceGuard creates a nonce guard over db. The counter starts at zero,
// so the first accepted nonce is 1.
func NewNonceGuard(db database.Database) *NonceGuard {
	return &NonceGuard{db: db}
}

// Check reports, without consuming, whether nonce would be accepted.
func (g *NonceGuard) Check(_ common.Hash, nonce uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	current, err := g.counter()
	if err != nil {
		return err
	}
	if nonce != current+1 {
		return ErrInvalidNonce
	}
	return nil
}

// Consume accepts nonce only if it is exactly the successor of the stored
// counter, then advances the counter. The request hash is not consulted.
func (g *NonceGuard) Consume(_ common.Hash, nonce uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	current, err := g.counter()
	if err != nil {
		return err
	}
	if nonce != current+1 {
		return ErrInvalidNonce
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], nonce)
	return g.db.Put(nonceCounterKey, buf[:])
}

// Used reports whether a request with the given hash could still execute.
// Under the counter model an individual hash is not tracked, so this only
// answers false; callers needing per-request records use HashGuard.
func (g *NonceGuard) Used(common.Hash) (bool, error) {
	return false, nil
}

// Next returns the nonce the guard will accept next. Off-chain tooling reads
// this before constructing a request.
func (g *NonceGuard) Next() (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	current, err := g.counter()
	if err != nil {
		return 0, err
	}
	return current + 1, nil
}

func (g *NonceGuard) counter() (uint64, error) {
	raw, err := g.db.Get(nonceCounterKey)
	if err == database.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, ErrInvalidNonce
	}
	return binary.BigEndian.Uint64(raw), nil
}
