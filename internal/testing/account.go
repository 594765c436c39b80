package testing

import (
	addresscodec "github.com/LeJamon/goMarketd/internal/codec/address-codec"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
	"github.com/LeJamon/goMarketd/internal/core/tx"
	ed25519 "github.com/LeJamon/goMarketd/internal/crypto/algorithms/ed25519"
	crypto "github.com/LeJamon/goMarketd/internal/crypto/common"
)

// Account represents a test account with keypair and address information.
type Account struct {
	// Name is a human-readable identifier for the account (used for debugging).
	Name string

	// Address is the base58 form of ID.
	Address string

	// ID is the account's ed25519 public key.
	ID [32]byte

	// PrivateKey is the hex ed25519 seed.
	PrivateKey string
}

// NewAccount creates a new test account with a deterministic keypair derived from the name.
// Using the same name will always produce the same account, making tests reproducible.
func NewAccount(name string) *Account {
	priv, id, err := ed25519.NewED25519Provider().GenerateKeypair([]byte(name))
	if err != nil {
		panic("failed to derive keypair for account " + name + ": " + err.Error())
	}
	return &Account{
		Name:       name,
		Address:    addresscodec.Encode(id),
		ID:         id,
		PrivateKey: priv,
	}
}

// KeyPair returns the signing key of the account.
func (a *Account) KeyPair() tx.KeyPair {
	return tx.KeyPair{Address: a.Address, PrivateKey: a.PrivateKey}
}

// Mint names a fungible or non-fungible asset.
type Mint struct {
	Name    string
	Address string
	ID      [32]byte
}

// NewMint derives a deterministic mint identifier from name.
func NewMint(name string) Mint {
	id := crypto.Sha512Half([]byte("mint:" + name))
	return Mint{Name: name, Address: addresscodec.Encode(id), ID: id}
}

// TokenAccount is the derived (owner, mint) token account.
type TokenAccount struct {
	Owner *Account
	Mint  Mint
	Key   [32]byte
}

// NewTokenAccount derives the token account of owner for mint.
func NewTokenAccount(owner *Account, mint Mint) TokenAccount {
	return TokenAccount{Owner: owner, Mint: mint, Key: keylet.TokenAccount(owner.ID, mint.ID).Key}
}

// Address returns the base58 form of the token account key.
func (a TokenAccount) Address() string {
	return addresscodec.Encode(a.Key)
}
