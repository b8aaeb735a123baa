// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package replay

import (
	"sync"

	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

// usedRequestPrefix namespaces guard records within a shared database.
var usedRequestPrefix = []byte("used_request")

// HashGuard is the used-hash-set guard model: a persistent mapping from
// canonical request hash to an executed flag. Records are created on first
// consumption and never deleted.
type HashGuard struct {
	db database.Database
	mu sync.Mutex
}

// NewHashGuard creates a guard over db. The database may be shared with
// other components; guard records live under their own key namespace.
func NewHashGuard(db database.Database) *HashGuard {
	return &HashGuard{db: db}
}

// Check reports, without consuming, whether id is still executable.
func (g *HashGuard) Check(id common.Hash, _ uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	used, err := g.db.Has(guardKey(id))
	if err != nil {
		return err
	}
	if used {
		return ErrAlreadyUsed
	}
	return nil
}

// Consume marks id as executed. The check and the write happen under one
// lock so two concurrent submissions of the same request cannot both pass.
func (g *HashGuard) Consume(id common.Hash, _ uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := guardKey(id)
	used, err := g.db.Has(key)
	if err != nil {
		return err
	}
	if used {
		return ErrAlreadyUsed
	}
	return g.db.Put(key, []byte{1})
}

// Used reports whether id has been consumed.
func (g *HashGuard) Used(id common.Hash) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.db.Has(guardKey(id))
}

func guardKey(id common.Hash) []byte {
	h := blake3.Sum256(append(append([]byte{}, usedRequestPrefix...), id[:]...))
	return h[:]
}
