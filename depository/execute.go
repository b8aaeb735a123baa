// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package depository

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"

	"github.com/luxfi/depository/request"
)

// authorize runs the validity pipeline shared by every entry point:
// expiration first, then the allocator signature over the domain-separated
// hash, then the replay check. Expiration comes before the replay check so
// an expired-and-never-valid request can never consume a nonce slot or mark
// a hash used. The replay slot is only consumed by the caller after the
// request's side effects complete, inside the same critical section.
func (d *Depository) authorize(structHash common.Hash, nonce uint64, expiration int64, sig []byte) (common.Hash, error) {
	if d.now() >= expiration {
		return common.Hash{}, ErrRequestExpired
	}

	digest := d.domain.SigningHash(structHash)
	if err := d.verifier.Verify(digest, sig, d.allocator); err != nil {
		return common.Hash{}, err
	}

	if err := d.guard.Check(structHash, nonce); err != nil {
		return common.Hash{}, err
	}
	return digest, nil
}

// ExecuteTransfer performs a single allocator-signed transfer out of the
// vault. Anyone may submit; authorization comes entirely from the signature.
func (d *Depository) ExecuteTransfer(executor common.Address, req request.TransferRequest, sig []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := req.Validate(); err != nil {
		return err
	}

	structHash := req.StructHash()
	if _, err := d.authorize(structHash, req.Nonce, req.Expiration, sig); err != nil {
		return err
	}

	snap := d.state.Snapshot()
	if req.IsNative() {
		if err := d.payNative(req.Recipient, req.Amount); err != nil {
			return err
		}
	} else {
		if d.state.GetTokenBalance(d.vault, req.Token).Lt(req.Amount) {
			return ErrInsufficientVault
		}
		d.state.SubTokenBalance(d.vault, req.Token, req.Amount)
		d.state.AddTokenBalance(req.Recipient, req.Token, req.Amount)
	}

	if err := d.guard.Consume(structHash, req.Nonce); err != nil {
		// Storage fault after the transfer moved funds; undo it rather than
		// persist effects for a request that was never marked used.
		d.state.RevertToSnapshot(snap)
		return err
	}

	d.emitTransferExecuted(structHash, executor, req.Recipient, req.Token, req.Amount)
	d.log.Info("transfer executed",
		"request", structHash, "recipient", req.Recipient, "amount", req.Amount)
	return nil
}

// Execute performs an allocator-signed batch of calls strictly in order.
// A failing call with AllowFailure set is recorded in the result array and
// rolled back individually; a failing call without it aborts the batch and
// rolls back every prior effect. A zero-length batch is a valid no-op that
// still consumes the replay slot.
func (d *Depository) Execute(executor common.Address, req request.CallRequest, sig []byte) ([]request.CallResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	structHash := req.StructHash()
	if _, err := d.authorize(structHash, req.Nonce, req.Expiration, sig); err != nil {
		return nil, err
	}

	batchSnap := d.state.Snapshot()
	results := make([]request.CallResult, 0, len(req.Calls))

	for i := range req.Calls {
		call := &req.Calls[i]

		callSnap := d.state.Snapshot()
		ret, err := d.performCall(call)
		if err != nil {
			if !call.AllowFailure {
				d.state.RevertToSnapshot(batchSnap)
				return nil, fmt.Errorf("%w: call %d: %s", ErrCallFailed, i, err)
			}
			d.state.RevertToSnapshot(callSnap)
			results = append(results, request.CallResult{
				Success:    false,
				ReturnData: []byte(err.Error()),
			})
			continue
		}

		results = append(results, request.CallResult{Success: true, ReturnData: ret})
		d.emitCallExecuted(structHash, uint64(i), call.Target, call.Value)
	}

	if err := d.guard.Consume(structHash, req.Nonce); err != nil {
		// Check passed at the top of this critical section, so a failure here
		// is a storage fault; undo the batch rather than persist effects for
		// a request that was never marked used.
		d.state.RevertToSnapshot(batchSnap)
		return nil, err
	}

	d.log.Info("batch executed",
		"request", structHash, "calls", len(req.Calls), "executor", executor)
	return results, nil
}

// performCall moves the call's value from the vault and runs the target's
// handler. Vault sufficiency is checked per call, not once per batch:
// earlier calls change what is available to later ones.
func (d *Depository) performCall(call *request.Call) ([]byte, error) {
	if !call.Value.IsZero() {
		if err := d.payNative(call.Target, call.Value); err != nil {
			return nil, err
		}
	}

	handler, ok := d.handlers[call.Target]
	if !ok {
		// Plain value transfer; payload is carried but has no executor here.
		return nil, nil
	}
	return handler(d.state, d.domain.Contract, call.Payload, call.Value)
}

// payNative moves native currency out of the vault, keeping the configured
// reserve untouched.
func (d *Depository) payNative(to common.Address, amount *uint256.Int) error {
	balance := d.state.GetBalance(d.vault)
	available := new(uint256.Int)
	if balance.Gt(d.nativeReserve) {
		available.Sub(balance, d.nativeReserve)
	}
	if available.Lt(amount) {
		return ErrInsufficientVault
	}

	d.state.SubBalance(d.vault, amount, tracing.BalanceChangeTransfer)
	d.state.AddBalance(to, amount, tracing.BalanceChangeTransfer)
	return nil
}
