// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package depository

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
)

// Event topics. The topic is the keccak hash of the event signature; logs are
// addressed to the depository instance and appended to the journaled state,
// so events from reverted calls are rolled back along with their effects.
var (
	DepositTopic = common.BytesToHash(crypto.Keccak256(
		[]byte("Deposit(address,address,uint256,bytes32)")))
	TransferExecutedTopic = common.BytesToHash(crypto.Keccak256(
		[]byte("TransferExecuted(bytes32,address,address,address,uint256)")))
	CallExecutedTopic = common.BytesToHash(crypto.Keccak256(
		[]byte("CallExecuted(bytes32,uint256,address,uint256)")))
	AllocatorUpdatedTopic = common.BytesToHash(crypto.Keccak256(
		[]byte("AllocatorUpdated(bytes,bytes)")))
	OwnerUpdatedTopic = common.BytesToHash(crypto.Keccak256(
		[]byte("OwnerUpdated(address,address)")))
)

// emitDeposit records a credited deposit. amount is the NET credited amount
// after any transfer fee, never the requested amount.
func (d *Depository) emitDeposit(depositor, token common.Address, amount *uint256.Int, id [32]byte) {
	word := amount.Bytes32()
	data := make([]byte, 0, 2*common.HashLength)
	data = append(data, word[:]...)
	data = append(data, id[:]...)
	d.state.AddLog(&ethtypes.Log{
		Address: d.domain.Contract,
		Topics: []common.Hash{
			DepositTopic,
			addressTopic(depositor),
			addressTopic(token),
		},
		Data: data,
	})
}

// emitTransferExecuted records a completed transfer request.
func (d *Depository) emitTransferExecuted(id common.Hash, executor, recipient, token common.Address, amount *uint256.Int) {
	word := amount.Bytes32()
	data := make([]byte, 0, 2*common.HashLength)
	data = append(data, addressWord(token)...)
	data = append(data, word[:]...)
	d.state.AddLog(&ethtypes.Log{
		Address: d.domain.Contract,
		Topics: []common.Hash{
			TransferExecutedTopic,
			id,
			addressTopic(executor),
			addressTopic(recipient),
		},
		Data: data,
	})
}

// emitCallExecuted records one successful call of a batch. Failed-but-allowed
// calls are reported only in the result array.
func (d *Depository) emitCallExecuted(id common.Hash, index uint64, target common.Address, value *uint256.Int) {
	word := value.Bytes32()
	data := make([]byte, 0, 2*common.HashLength)
	data = append(data, uint64Word(index)...)
	data = append(data, word[:]...)
	d.state.AddLog(&ethtypes.Log{
		Address: d.domain.Contract,
		Topics: []common.Hash{
			CallExecutedTopic,
			id,
			addressTopic(target),
		},
		Data: data,
	})
}

func (d *Depository) emitAllocatorUpdated(prev, next []byte) {
	data := make([]byte, 0, len(prev)+len(next)+2*common.HashLength)
	data = append(data, uint64Word(uint64(len(prev)))...)
	data = append(data, prev...)
	data = append(data, uint64Word(uint64(len(next)))...)
	data = append(data, next...)
	d.state.AddLog(&ethtypes.Log{
		Address: d.domain.Contract,
		Topics:  []common.Hash{AllocatorUpdatedTopic},
		Data:    data,
	})
}

func (d *Depository) emitOwnerUpdated(prev, next common.Address) {
	d.state.AddLog(&ethtypes.Log{
		Address: d.domain.Contract,
		Topics:  []common.Hash{OwnerUpdatedTopic, addressTopic(prev), addressTopic(next)},
	})
}

func addressTopic(addr common.Address) common.Hash {
	var h common.Hash
	copy(h[12:], addr.Bytes())
	return h
}

func addressWord(addr common.Address) []byte {
	var word [common.HashLength]byte
	copy(word[12:], addr.Bytes())
	return word[:]
}

func uint64Word(v uint64) []byte {
	var word [common.HashLength]byte
	binary.BigEndian.PutUint64(word[24:], v)
	return word[:]
}
