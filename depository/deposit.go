// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package depository

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
)

// Deposit errors
var (
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrInsufficientSender = errors.New("insufficient sender balance")
)

// Asset moves a fungible token between accounts and reports the NET amount
// that arrived, which may be less than requested for fee-on-transfer tokens.
// All downstream accounting uses the returned net amount.
type Asset interface {
	Address() common.Address
	Transfer(st stateWriter, from, to common.Address, amount *uint256.Int) (*uint256.Int, error)
}

// stateWriter is the slice of the state surface assets need.
type stateWriter interface {
	GetTokenBalance(addr common.Address, token common.Address) *uint256.Int
	AddTokenBalance(addr common.Address, token common.Address, amount *uint256.Int)
	SubTokenBalance(addr common.Address, token common.Address, amount *uint256.Int)
}

// StandardAsset is a plain token: the full requested amount is credited.
type StandardAsset struct {
	Token common.Address
}

func (a StandardAsset) Address() common.Address { return a.Token }

func (a StandardAsset) Transfer(st stateWriter, from, to common.Address, amount *uint256.Int) (*uint256.Int, error) {
	if st.GetTokenBalance(from, a.Token).Lt(amount) {
		return nil, ErrInsufficientSender
	}
	st.SubTokenBalance(from, a.Token, amount)
	st.AddTokenBalance(to, a.Token, amount)
	return amount.Clone(), nil
}

// FeeAsset is a fee-on-transfer token: the transfer mechanism withholds
// FeeBPS basis points, so the receiver is credited less than the sender pays.
type FeeAsset struct {
	Token  common.Address
	FeeBPS uint64 // Fee in basis points (100 = 1%)
}

const basisPoints = 10000

func (a FeeAsset) Address() common.Address { return a.Token }

func (a FeeAsset) Transfer(st stateWriter, from, to common.Address, amount *uint256.Int) (*uint256.Int, error) {
	if st.GetTokenBalance(from, a.Token).Lt(amount) {
		return nil, ErrInsufficientSender
	}

	fee := new(uint256.Int).Mul(amount, uint256.NewInt(a.FeeBPS))
	fee.Div(fee, uint256.NewInt(basisPoints))
	net := new(uint256.Int).Sub(amount, fee)

	st.SubTokenBalance(from, a.Token, amount)
	st.AddTokenBalance(to, a.Token, net)
	return net, nil
}

// DepositNative moves amount of native currency from sender into the vault
// and credits it to depositor. id is an opaque caller-supplied tag carried in
// the deposit event; duplicates are permitted, uniqueness is an off-chain
// concern. Returns the credited amount.
func (d *Depository) DepositNative(sender, depositor common.Address, amount *uint256.Int, id [32]byte) (*uint256.Int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if amount == nil || amount.IsZero() {
		return nil, ErrInvalidAmount
	}
	if d.state.GetBalance(sender).Lt(amount) {
		return nil, ErrInsufficientSender
	}

	d.state.SubBalance(sender, amount, tracing.BalanceChangeTransfer)
	d.state.AddBalance(d.vault, amount, tracing.BalanceChangeTransfer)

	d.emitDeposit(depositor, common.Address{}, amount, id)
	return amount.Clone(), nil
}

// DepositToken moves amount of asset from sender into the vault and credits
// the NET received amount to depositor: for fee-on-transfer assets the
// deposit event records what the vault actually received, never the
// requested amount. Returns the net credited amount.
func (d *Depository) DepositToken(sender, depositor common.Address, asset Asset, amount *uint256.Int, id [32]byte) (*uint256.Int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if amount == nil || amount.IsZero() {
		return nil, ErrInvalidAmount
	}

	net, err := asset.Transfer(d.state, sender, d.vault, amount)
	if err != nil {
		return nil, err
	}

	d.emitDeposit(depositor, asset.Address(), net, id)
	return net, nil
}

// SweepNative deposits a forwarding account's entire native balance into the
// vault on behalf of depositor. Sweeping an empty account is rejected.
func (d *Depository) SweepNative(forwarder, depositor common.Address, id [32]byte) (*uint256.Int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	amount := d.state.GetBalance(forwarder)
	if amount.IsZero() {
		return nil, ErrEmptyBalance
	}

	d.state.SubBalance(forwarder, amount, tracing.BalanceChangeTransfer)
	d.state.AddBalance(d.vault, amount, tracing.BalanceChangeTransfer)

	d.emitDeposit(depositor, common.Address{}, amount, id)
	return amount, nil
}

// SweepToken deposits a forwarding account's entire balance of asset into
// the vault on behalf of depositor.
func (d *Depository) SweepToken(forwarder, depositor common.Address, asset Asset, id [32]byte) (*uint256.Int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	amount := d.state.GetTokenBalance(forwarder, asset.Address())
	if amount.IsZero() {
		return nil, ErrEmptyBalance
	}

	net, err := asset.Transfer(d.state, forwarder, d.vault, amount)
	if err != nil {
		return nil, err
	}

	d.emitDeposit(depositor, asset.Address(), net, id)
	return net, nil
}
