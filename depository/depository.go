// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package depository implements the relay depository engine: a custody vault
// that accepts deposits of native currency or tokens and executes
// allocator-signed transfer and call requests exactly once. The signature
// scheme, replay-guard model and state backend are pluggable; the engine is
// scheme-agnostic and depends only on their interfaces.
package depository

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"

	"github.com/luxfi/depository/domain"
	"github.com/luxfi/depository/replay"
	"github.com/luxfi/depository/sigverify"
	"github.com/luxfi/depository/state"
)

// Errors
var (
	ErrUnauthorized      = errors.New("unauthorized: caller is not the owner")
	ErrZeroAddress       = errors.New("address cannot be zero")
	ErrEmptyAllocator    = errors.New("allocator cannot be empty")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrRequestExpired    = errors.New("request has expired")
	ErrCallFailed        = errors.New("call failed")
	ErrInsufficientVault = errors.New("insufficient vault balance")
	ErrEmptyBalance      = errors.New("nothing to sweep")
)

// CallHandler executes the payload of a batch call at a registered target.
// caller is the depository instance address; value has already been credited
// to the target when the handler runs. Returning an error fails the call.
type CallHandler func(st state.StateDB, caller common.Address, input []byte, value *uint256.Int) ([]byte, error)

// Config assembles a depository instance.
type Config struct {
	Owner     common.Address   // Administrator; may rotate itself and the allocator
	Allocator []byte           // Current allocator signer (scheme-dependent length)
	Domain    domain.Separator // Instance binding for signed hashes
	Verifier  sigverify.Verifier
	Guard     replay.Guard
	State     state.StateDB
	Vault     common.Address // Account holding pooled deposits

	// NativeReserve is the minimum native balance the vault retains; transfers
	// may not draw the vault below it. Nil means no reserve.
	NativeReserve *uint256.Int

	Log log.Logger   // Defaults to a test logger when nil
	Now func() int64 // Clock override, defaults to time.Now().Unix
}

// Depository is the engine. All request execution is a single serializable
// state transition: the engine mutex is held from validity checks through
// replay consumption, so two submissions of the same request can never both
// succeed.
type Depository struct {
	owner         common.Address
	allocator     []byte
	domain        domain.Separator
	verifier      sigverify.Verifier
	guard         replay.Guard
	state         state.StateDB
	vault         common.Address
	nativeReserve *uint256.Int
	handlers      map[common.Address]CallHandler
	log           log.Logger
	now           func() int64

	mu sync.RWMutex
}

// New creates a depository from cfg.
func New(cfg Config) (*Depository, error) {
	if cfg.Owner == (common.Address{}) || cfg.Vault == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	if len(cfg.Allocator) == 0 {
		return nil, ErrEmptyAllocator
	}
	if cfg.Verifier == nil || cfg.Guard == nil || cfg.State == nil {
		return nil, ErrInvalidConfig
	}

	logger := cfg.Log
	if logger == nil {
		logger = log.NewTestLogger(log.InfoLevel)
	}
	now := cfg.Now
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	reserve := cfg.NativeReserve
	if reserve == nil {
		reserve = uint256.NewInt(0)
	}

	return &Depository{
		owner:         cfg.Owner,
		allocator:     append([]byte{}, cfg.Allocator...),
		domain:        cfg.Domain,
		verifier:      cfg.Verifier,
		guard:         cfg.Guard,
		state:         cfg.State,
		vault:         cfg.Vault,
		nativeReserve: reserve,
		handlers:      make(map[common.Address]CallHandler),
		log:           logger,
		now:           now,
	}, nil
}

// SetAllocator replaces the authorized allocator signer. Owner only. The new
// value is effective immediately: requests signed under the previous key
// become permanently unverifiable, there is no transition window.
func (d *Depository) SetAllocator(caller common.Address, newAllocator []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if caller != d.owner {
		return ErrUnauthorized
	}
	if len(newAllocator) == 0 {
		return ErrEmptyAllocator
	}

	old := d.allocator
	d.allocator = append([]byte{}, newAllocator...)
	d.emitAllocatorUpdated(old, d.allocator)
	d.log.Info("allocator updated",
		"old", common.Bytes2Hex(old), "new", common.Bytes2Hex(d.allocator))
	return nil
}

// SetOwner transfers administration to a new address. Owner only.
func (d *Depository) SetOwner(caller common.Address, newOwner common.Address) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if caller != d.owner {
		return ErrUnauthorized
	}
	if newOwner == (common.Address{}) {
		return ErrZeroAddress
	}

	old := d.owner
	d.owner = newOwner
	d.emitOwnerUpdated(old, newOwner)
	d.log.Info("owner updated", "old", old, "new", newOwner)
	return nil
}

// RegisterHandler installs the execution handler for calls targeting addr.
// Calls to targets without a handler are plain value transfers.
func (d *Depository) RegisterHandler(addr common.Address, h CallHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[addr] = h
}

// Accessor queries for off-chain tooling.

// Owner returns the current administrator.
func (d *Depository) Owner() common.Address {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.owner
}

// Allocator returns the current allocator signer bytes.
func (d *Depository) Allocator() []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]byte{}, d.allocator...)
}

// IsAllocator reports whether signer is the current allocator.
func (d *Depository) IsAllocator(signer []byte) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return bytes.Equal(signer, d.allocator)
}

// Vault returns the pooled funds account.
func (d *Depository) Vault() common.Address {
	return d.vault
}

// Domain returns the instance's domain separator.
func (d *Depository) Domain() domain.Separator {
	return d.domain
}

// UsedRequest reports whether the request with the given canonical hash has
// been executed.
func (d *Depository) UsedRequest(id common.Hash) (bool, error) {
	return d.guard.Used(id)
}

// VaultBalance returns the vault's native balance.
func (d *Depository) VaultBalance() *uint256.Int {
	return d.state.GetBalance(d.vault)
}

// VaultTokenBalance returns the vault's balance of token.
func (d *Depository) VaultTokenBalance(token common.Address) *uint256.Int {
	return d.state.GetTokenBalance(d.vault, token)
}
