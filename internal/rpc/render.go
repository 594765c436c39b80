package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	addresscodec "github.com/LeJamon/goMarketd/internal/codec/address-codec"
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goMarketd/internal/storage/relationaldb"
)

func hashString(h [32]byte) string {
	return strings.ToUpper(hex.EncodeToString(h[:]))
}

// parseKey accepts a ledger key as 64 hex characters or as an address.
func parseKey(s string) ([32]byte, error) {
	if len(s) == 64 {
		if b, err := hex.DecodeString(s); err == nil {
			var key [32]byte
			copy(key[:], b)
			return key, nil
		}
	}
	if s == "" {
		return [32]byte{}, errors.New("empty key")
	}
	return addresscodec.Decode(s)
}

// entryJSON renders a ledger entry with its identifiers as addresses.
func entryJSON(key [32]byte, e entry.Entry) map[string]interface{} {
	out := map[string]interface{}{
		"index":           hashString(key),
		"address":         addresscodec.Encode(key),
		"LedgerEntryType": e.Type().String(),
	}
	if base := e.Base(); base != nil {
		out["PreviousTxnID"] = hashString(base.PreviousTxnID)
		out["PreviousTxnLgrSeq"] = base.PreviousTxnLgrSeq
	}

	switch v := e.(type) {
	case *entries.Wallet:
		out["Account"] = addresscodec.Encode(v.Account)
		out["Balance"] = v.Balance
		out["OwnerCount"] = v.OwnerCount
	case *entries.TokenAccount:
		out["Owner"] = addresscodec.Encode(v.Owner)
		out["Mint"] = addresscodec.Encode(v.Mint)
		out["Amount"] = v.Amount
		out["RentPayer"] = addresscodec.Encode(v.RentPayer)
	case *entries.Marketplace:
		out["Owner"] = addresscodec.Encode(v.Owner)
		out["PaymentMint"] = addresscodec.Encode(v.PaymentMint)
		out["FeeRateBps"] = v.FeeRateBps
		out["FeeAccount"] = addresscodec.Encode(v.FeeAccount)
	case *entries.Collection:
		out["Marketplace"] = addresscodec.Encode(v.Marketplace)
		out["Name"] = v.Name
		out["Symbol"] = v.Symbol
		out["Creator"] = addresscodec.Encode(v.Creator)
		out["RoyaltyRateBps"] = v.RoyaltyRateBps
		out["RequireCreatorSignoff"] = v.RequireCreatorSignoff
		out["CreatorVerified"] = v.CreatorVerified
	case *entries.SellOrder:
		for k, val := range sellOrderJSON(v) {
			out[k] = val
		}
	case *entries.Vault:
		out["Collection"] = addresscodec.Encode(v.Collection)
		out["AssetMint"] = addresscodec.Encode(v.AssetMint)
		out["CustodyAccount"] = addresscodec.Encode(v.CustodyAccount)
		out["Total"] = v.Total
		out["OpenOrders"] = v.OpenOrders
		out["RentPayer"] = addresscodec.Encode(v.RentPayer)
	}
	return out
}

func sellOrderJSON(o *entries.SellOrder) map[string]interface{} {
	return map[string]interface{}{
		"Collection":           addresscodec.Encode(o.Collection),
		"Seller":               addresscodec.Encode(o.Seller),
		"SellerAssetAccount":   addresscodec.Encode(o.SellerAssetAccount),
		"SellerPaymentAccount": addresscodec.Encode(o.SellerPaymentAccount),
		"AssetMint":            addresscodec.Encode(o.AssetMint),
		"UnitPrice":            o.UnitPrice,
		"RemainingQuantity":    o.RemainingQuantity,
	}
}

// txJSON renders a recorded transaction. The stored transaction and
// metadata are already JSON and are embedded as is.
func txJSON(info *relationaldb.TransactionInfo) map[string]interface{} {
	return map[string]interface{}{
		"hash":            info.Hash.String(),
		"ledger_index":    uint32(info.LedgerSeq),
		"TransactionType": info.TxnType,
		"Account":         addresscodec.Encode(info.Account),
		"engine_result":   info.Result,
		"close_time":      info.CloseTime.UTC(),
		"tx_json":         json.RawMessage(info.RawTxn),
		"meta":            json.RawMessage(info.TxnMeta),
	}
}
