// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package depository

import (
	"crypto/ecdsa"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/depository/domain"
	"github.com/luxfi/depository/replay"
	"github.com/luxfi/depository/request"
	"github.com/luxfi/depository/sigverify"
	"github.com/luxfi/depository/state"
)

const testNow = int64(1_700_000_000)

var (
	testOwner = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testVault = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	testUser  = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	testToken = common.HexToAddress("0x00000000000000000000000000000000000000e1")
)

func testDomain() domain.Separator {
	return domain.Separator{
		Name:     "RelayDepository",
		Version:  "1",
		ChainID:  96369,
		Contract: common.HexToAddress("0x00000000000000000000000000000000000000d1"),
	}
}

// fixture wires a depository over in-memory state, a hash-set replay guard
// and a fresh secp256k1 allocator key with a fixed clock.
type fixture struct {
	d   *Depository
	st  *state.Memory
	key *ecdsa.PrivateKey
}

func keyAddress(key *ecdsa.PrivateKey) []byte {
	return crypto.Keccak256(crypto.FromECDSAPub(&key.PublicKey)[1:])[12:]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	st := state.NewMemory()
	d, err := New(Config{
		Owner:     testOwner,
		Allocator: keyAddress(key),
		Domain:    testDomain(),
		Verifier:  sigverify.ECDSAVerifier{},
		Guard:     replay.NewHashGuard(memdb.New()),
		State:     st,
		Vault:     testVault,
		Now:       func() int64 { return testNow },
	})
	require.NoError(t, err)

	return &fixture{d: d, st: st, key: key}
}

func (f *fixture) fundVault(t *testing.T, amount uint64) {
	t.Helper()
	f.st.AddBalance(testVault, uint256.NewInt(amount), tracing.BalanceChangeTransfer)
}

func (f *fixture) fundVaultToken(t *testing.T, token common.Address, amount uint64) {
	t.Helper()
	f.st.AddTokenBalance(testVault, token, uint256.NewInt(amount))
}

func (f *fixture) signTransfer(t *testing.T, req request.TransferRequest) []byte {
	t.Helper()
	dom := f.d.Domain()
	digest := dom.SigningHash(req.StructHash())
	sig, err := crypto.Sign(digest[:], f.key)
	require.NoError(t, err)
	return sig
}

func (f *fixture) signBatch(t *testing.T, req request.CallRequest) []byte {
	t.Helper()
	dom := f.d.Domain()
	digest := dom.SigningHash(req.StructHash())
	sig, err := crypto.Sign(digest[:], f.key)
	require.NoError(t, err)
	return sig
}

// countLogs returns how many state logs carry topic at position zero.
func (f *fixture) countLogs(topic common.Hash) int {
	n := 0
	for _, l := range f.st.Logs() {
		if len(l.Topics) > 0 && l.Topics[0] == topic {
			n++
		}
	}
	return n
}

func TestNewValidation(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	valid := Config{
		Owner:     testOwner,
		Allocator: keyAddress(key),
		Domain:    testDomain(),
		Verifier:  sigverify.ECDSAVerifier{},
		Guard:     replay.NewHashGuard(memdb.New()),
		State:     state.NewMemory(),
		Vault:     testVault,
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero owner", func(c *Config) { c.Owner = common.Address{} }, ErrZeroAddress},
		{"zero vault", func(c *Config) { c.Vault = common.Address{} }, ErrZeroAddress},
		{"empty allocator", func(c *Config) { c.Allocator = nil }, ErrEmptyAllocator},
		{"nil verifier", func(c *Config) { c.Verifier = nil }, ErrInvalidConfig},
		{"nil guard", func(c *Config) { c.Guard = nil }, ErrInvalidConfig},
		{"nil state", func(c *Config) { c.State = nil }, ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			_, err := New(cfg)
			require.ErrorIs(t, err, tt.want)
		})
	}

	d, err := New(valid)
	require.NoError(t, err)
	require.Equal(t, testOwner, d.Owner())
	require.Equal(t, testVault, d.Vault())
	require.True(t, d.IsAllocator(keyAddress(key)))
}

func TestSetAllocator(t *testing.T) {
	f := newFixture(t)

	newKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	next := keyAddress(newKey)

	require.ErrorIs(t, f.d.SetAllocator(testUser, next), ErrUnauthorized)
	require.ErrorIs(t, f.d.SetAllocator(testOwner, nil), ErrEmptyAllocator)

	require.NoError(t, f.d.SetAllocator(testOwner, next))
	require.True(t, f.d.IsAllocator(next))
	require.False(t, f.d.IsAllocator(keyAddress(f.key)))
	require.Equal(t, 1, f.countLogs(AllocatorUpdatedTopic))
}

func TestSetAllocatorInvalidatesPendingSignatures(t *testing.T) {
	f := newFixture(t)
	f.fundVault(t, 1000)

	req := request.TransferRequest{
		Recipient:  testUser,
		Amount:     uint256.NewInt(100),
		Nonce:      1,
		Expiration: testNow + 60,
	}
	oldSig := f.signTransfer(t, req)

	newKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	require.NoError(t, f.d.SetAllocator(testOwner, keyAddress(newKey)))

	// Rotation is effective immediately, no grace period.
	require.ErrorIs(t, f.d.ExecuteTransfer(testUser, req, oldSig), sigverify.ErrInvalidSignature)

	dom := f.d.Domain()
	digest := dom.SigningHash(req.StructHash())
	newSig, err := crypto.Sign(digest[:], newKey)
	require.NoError(t, err)
	require.NoError(t, f.d.ExecuteTransfer(testUser, req, newSig))
}

func TestSetOwner(t *testing.T) {
	f := newFixture(t)
	next := common.HexToAddress("0x00000000000000000000000000000000000000a2")

	require.ErrorIs(t, f.d.SetOwner(testUser, next), ErrUnauthorized)
	require.ErrorIs(t, f.d.SetOwner(testOwner, common.Address{}), ErrZeroAddress)

	require.NoError(t, f.d.SetOwner(testOwner, next))
	require.Equal(t, next, f.d.Owner())
	require.Equal(t, 1, f.countLogs(OwnerUpdatedTopic))

	// The previous owner lost its rights with the handover.
	require.ErrorIs(t, f.d.SetOwner(testOwner, testOwner), ErrUnauthorized)
	require.NoError(t, f.d.SetOwner(next, testOwner))
}
