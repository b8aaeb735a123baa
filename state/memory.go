// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	ethtypes "github.com/luxfi/geth/core/types"
)

type tokenKey struct {
	addr  common.Address
	token common.Address
}

// journalEntry undoes one state mutation.
type journalEntry interface {
	revert(*Memory)
}

type balanceChange struct {
	addr common.Address
	prev *uint256.Int
}

func (c balanceChange) revert(m *Memory) {
	if c.prev == nil {
		delete(m.balances, c.addr)
		return
	}
	m.balances[c.addr] = c.prev
}

type tokenBalanceChange struct {
	key  tokenKey
	prev *uint256.Int
}

func (c tokenBalanceChange) revert(m *Memory) {
	if c.prev == nil {
		delete(m.tokenBalances, c.key)
		return
	}
	m.tokenBalances[c.key] = c.prev
}

type logAppend struct{}

func (logAppend) revert(m *Memory) { m.logs = m.logs[:len(m.logs)-1] }

// Memory is an in-memory StateDB with journaled mutations. Snapshot returns
// the current journal length; RevertToSnapshot unwinds entries back to it.
type Memory struct {
	balances      map[common.Address]*uint256.Int
	tokenBalances map[tokenKey]*uint256.Int
	logs          []*ethtypes.Log
	journal       []journalEntry
	mu            sync.Mutex
}

// NewMemory creates an empty state.
func NewMemory() *Memory {
	return &Memory{
		balances:      make(map[common.Address]*uint256.Int),
		tokenBalances: make(map[tokenKey]*uint256.Int),
	}
}

func (m *Memory) GetBalance(addr common.Address) *uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if bal, ok := m.balances[addr]; ok {
		return bal.Clone()
	}
	return uint256.NewInt(0)
}

func (m *Memory) AddBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.balances[addr]
	m.journal = append(m.journal, balanceChange{addr: addr, prev: prev})
	if prev == nil {
		prev = uint256.NewInt(0)
	}
	m.balances[addr] = new(uint256.Int).Add(prev, amount)
}

func (m *Memory) SubBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.balances[addr]
	m.journal = append(m.journal, balanceChange{addr: addr, prev: prev})
	if prev == nil {
		prev = uint256.NewInt(0)
	}
	m.balances[addr] = new(uint256.Int).Sub(prev, amount)
}

func (m *Memory) GetTokenBalance(addr common.Address, token common.Address) *uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if bal, ok := m.tokenBalances[tokenKey{addr, token}]; ok {
		return bal.Clone()
	}
	return uint256.NewInt(0)
}

func (m *Memory) AddTokenBalance(addr common.Address, token common.Address, amount *uint256.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := tokenKey{addr, token}
	prev := m.tokenBalances[key]
	m.journal = append(m.journal, tokenBalanceChange{key: key, prev: prev})
	if prev == nil {
		prev = uint256.NewInt(0)
	}
	m.tokenBalances[key] = new(uint256.Int).Add(prev, amount)
}

func (m *Memory) SubTokenBalance(addr common.Address, token common.Address, amount *uint256.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := tokenKey{addr, token}
	prev := m.tokenBalances[key]
	m.journal = append(m.journal, tokenBalanceChange{key: key, prev: prev})
	if prev == nil {
		prev = uint256.NewInt(0)
	}
	m.tokenBalances[key] = new(uint256.Int).Sub(prev, amount)
}

func (m *Memory) AddLog(log *ethtypes.Log) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journal = append(m.journal, logAppend{})
	m.logs = append(m.logs, log)
}

func (m *Memory) Logs() []*ethtypes.Log {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ethtypes.Log, len(m.logs))
	copy(out, m.logs)
	return out
}

func (m *Memory) Snapshot() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.journal)
}

func (m *Memory) RevertToSnapshot(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 0 || id > len(m.journal) {
		return
	}
	for i := len(m.journal) - 1; i >= id; i-- {
		m.journal[i].revert(m)
	}
	m.journal = m.journal[:id]
}
