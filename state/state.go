// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state holds the balances the depository engine moves and the event
// logs it emits. Mutations are journaled so a batch can be rolled back to a
// snapshot atomically, including any logs emitted after the snapshot.
package state

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	ethtypes "github.com/luxfi/geth/core/types"
)

// StateDB is the mutable state surface the engine executes against. Native
// balances and per-token balances are tracked separately; Snapshot and
// RevertToSnapshot bracket atomic regions.
type StateDB interface {
	GetBalance(addr common.Address) *uint256.Int
	AddBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason)
	SubBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason)

	GetTokenBalance(addr common.Address, token common.Address) *uint256.Int
	AddTokenBalance(addr common.Address, token common.Address, amount *uint256.Int)
	SubTokenBalance(addr common.Address, token common.Address, amount *uint256.Int)

	AddLog(log *ethtypes.Log)
	Logs() []*ethtypes.Log

	Snapshot() int
	RevertToSnapshot(id int)
}
