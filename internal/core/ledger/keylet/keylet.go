package keylet

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
	crypto "github.com/LeJamon/goMarketd/internal/crypto/common"
)

// Space identifiers for keylet generation.
// Each entry type hashes under its own space so that equal inputs
// of different types can never produce the same key.
const (
	spaceWallet      uint16 = 'a' // Native wallet
	spaceTokenAcct   uint16 = 't' // Token account
	spaceMarketplace uint16 = 'M' // Marketplace
	spaceCollection  uint16 = 'C' // Collection
	spaceSellOrder   uint16 = 'o' // Sell order
	spaceVault       uint16 = 'V' // Vault
)

// Keylet represents an addressable location in the ledger state.
// It combines a type identifier with a 256-bit key.
type Keylet struct {
	Type entry.Type
	Key  [32]byte
}

// String returns the hex form of the key.
func (k Keylet) String() string {
	return hex.EncodeToString(k.Key[:])
}

// indexHash computes a keylet key by hashing the space and provided data.
func indexHash(space uint16, data ...[]byte) [32]byte {
	spaceBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(spaceBytes, space)

	inputs := make([][]byte, 0, len(data)+1)
	inputs = append(inputs, spaceBytes)
	inputs = append(inputs, data...)

	return crypto.Sha512Half(inputs...)
}

// Wallet returns the keylet for the native wallet of an account.
func Wallet(account [32]byte) Keylet {
	return Keylet{
		Type: entry.TypeWallet,
		Key:  indexHash(spaceWallet, account[:]),
	}
}

// TokenAccount returns the keylet for the balance of mint held by owner.
func TokenAccount(owner, mint [32]byte) Keylet {
	return Keylet{
		Type: entry.TypeTokenAccount,
		Key:  indexHash(spaceTokenAcct, owner[:], mint[:]),
	}
}

// Marketplace returns the keylet for the marketplace of an owner.
func Marketplace(owner [32]byte) Keylet {
	return Keylet{
		Type: entry.TypeMarketplace,
		Key:  indexHash(spaceMarketplace, owner[:]),
	}
}

// Collection returns the keylet for a collection within a marketplace.
// The symbol is length-prefixed.
func Collection(marketplace [32]byte, symbol string) Keylet {
	return Keylet{
		Type: entry.TypeCollection,
		Key:  indexHash(spaceCollection, marketplace[:], []byte{byte(len(symbol))}, []byte(symbol)),
	}
}

// SellOrder returns the keylet for the order of a seller asset account at
// one unit price.
func SellOrder(sellerAssetAccount [32]byte, unitPrice uint64) Keylet {
	priceBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(priceBytes, unitPrice)
	return Keylet{
		Type: entry.TypeSellOrder,
		Key:  indexHash(spaceSellOrder, sellerAssetAccount[:], priceBytes),
	}
}

// Vault returns the keylet for the custody vault of an asset mint within a
// collection.
func Vault(collection, assetMint [32]byte) Keylet {
	return Keylet{
		Type: entry.TypeVault,
		Key:  indexHash(spaceVault, collection[:], assetMint[:]),
	}
}

// Custody returns the keylet for the token account holding a vault's units.
// It is owned by the collection.
func Custody(collection, assetMint [32]byte) Keylet {
	return TokenAccount(collection, assetMint)
}

// Unchecked returns a keylet for a raw key whose type is not known to the
// caller.
func Unchecked(key [32]byte) Keylet {
	return Keylet{Key: key}
}
