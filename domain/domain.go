// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package domain binds signed request hashes to exactly one
// (protocol, version, chain, contract) tuple. A signature produced for one
// deployed instance is unverifiable on any other instance or chain, even
// under the same allocator key.
package domain

import (
	"encoding/binary"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
)

// TypeHash follows the EIP-712 domain layout so standard off-chain signing
// tooling can reproduce the final hash.
var TypeHash = common.BytesToHash(crypto.Keccak256(
	[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)")))

// Separator identifies one deployed depository instance. Both ChainID and
// Contract are always part of the hash; omitting either would make a single
// allocator signature valid on every deployment sharing that key.
type Separator struct {
	Name     string         // Protocol name, e.g. "RelayDepository"
	Version  string         // Protocol version string
	ChainID  uint64         // Execution chain identifier
	Contract common.Address // Deployed instance address
}

// Hash returns the domain hash of the separator.
func (s *Separator) Hash() common.Hash {
	var chainWord, contractWord [common.HashLength]byte
	binary.BigEndian.PutUint64(chainWord[24:], s.ChainID)
	copy(contractWord[12:], s.Contract.Bytes())

	buf := make([]byte, 0, 5*common.HashLength)
	buf = append(buf, TypeHash[:]...)
	buf = append(buf, crypto.Keccak256([]byte(s.Name))...)
	buf = append(buf, crypto.Keccak256([]byte(s.Version))...)
	buf = append(buf, chainWord[:]...)
	buf = append(buf, contractWord[:]...)
	return common.BytesToHash(crypto.Keccak256(buf))
}

// SigningHash combines the domain hash with a request struct hash into the
// final digest the allocator signs: keccak256(0x19 || 0x01 || domain || struct).
func (s *Separator) SigningHash(structHash common.Hash) common.Hash {
	domainHash := s.Hash()

	buf := make([]byte, 0, 2+2*common.HashLength)
	buf = append(buf, 0x19, 0x01)
	buf = append(buf, domainHash[:]...)
	buf = append(buf, structHash[:]...)
	return common.BytesToHash(crypto.Keccak256(buf))
}
