// Package genesis seeds an empty ledger with the wallets and token balances
// listed in a genesis file. Minting happens outside the ledger, so this is
// the only way balances enter it.
package genesis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	addresscodec "github.com/LeJamon/goMarketd/internal/codec/address-codec"
	"github.com/LeJamon/goMarketd/internal/core/ledger"
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goMarketd/internal/core/ledger/header"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
	crypto "github.com/LeJamon/goMarketd/internal/crypto/common"
)

// ErrAlreadyInitialized is returned when seeding a ledger that has closed
// at least one ledger.
var ErrAlreadyInitialized = errors.New("ledger already initialized")

// Config lists the initial allocations.
type Config struct {
	Wallets       []WalletAllocation       `json:"wallets"`
	TokenAccounts []TokenAccountAllocation `json:"token_accounts"`
}

type WalletAllocation struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

// TokenAccountAllocation opens the derived (owner, mint) token account.
type TokenAccountAllocation struct {
	Owner  string `json:"owner"`
	Mint   string `json:"mint"`
	Amount uint64 `json:"amount"`
}

// Load reads a genesis file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis file: %w", err)
	}
	return Parse(data)
}

// Parse decodes genesis JSON, rejecting unknown fields.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse genesis: %w", err)
	}
	return &cfg, nil
}

// ID identifies the genesis allocation; it becomes the LastTxnID of ledger 1.
func (c *Config) ID() ([32]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return [32]byte{}, err
	}
	return crypto.Sha512Half([]byte("GEN\x00"), data), nil
}

// Apply writes the allocations into l and closes ledger 1.
func Apply(l *ledger.Ledger, cfg *Config, closeTime time.Time) (header.LedgerHeader, error) {
	if l.Sequence() != 0 {
		return l.Header(), ErrAlreadyInitialized
	}
	defer l.Discard()

	for i, w := range cfg.Wallets {
		account, err := addresscodec.Decode(w.Account)
		if err != nil {
			return l.Header(), fmt.Errorf("wallets[%d].account: %w", i, err)
		}
		wallet := &entries.Wallet{Account: account, Balance: w.Balance}
		if err := insert(l, keylet.Wallet(account), wallet); err != nil {
			return l.Header(), fmt.Errorf("wallets[%d]: %w", i, err)
		}
	}

	for i, a := range cfg.TokenAccounts {
		owner, err := addresscodec.Decode(a.Owner)
		if err != nil {
			return l.Header(), fmt.Errorf("token_accounts[%d].owner: %w", i, err)
		}
		mint, err := addresscodec.Decode(a.Mint)
		if err != nil {
			return l.Header(), fmt.Errorf("token_accounts[%d].mint: %w", i, err)
		}
		acct := &entries.TokenAccount{Owner: owner, Mint: mint, Amount: a.Amount, RentPayer: owner}
		if err := insert(l, keylet.TokenAccount(owner, mint), acct); err != nil {
			return l.Header(), fmt.Errorf("token_accounts[%d]: %w", i, err)
		}
	}

	id, err := cfg.ID()
	if err != nil {
		return l.Header(), err
	}
	return l.Commit(id, closeTime)
}

func insert(l *ledger.Ledger, k keylet.Keylet, e entry.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	data, err := entry.Encode(e)
	if err != nil {
		return err
	}
	return l.Insert(k, data)
}
