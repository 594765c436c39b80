package tx

import (
	"github.com/LeJamon/goMarketd/internal/crypto/algorithms/ed25519"
)

// KeyPair is an account address and its hex ed25519 private key.
type KeyPair struct {
	Address    string
	PrivateKey string
}

// Sign replaces the signers of t with one signature per key, in order.
func Sign(t Transaction, keys ...KeyPair) error {
	common := t.GetCommon()
	common.Signers = nil
	digest, err := SigningHash(t)
	if err != nil {
		return err
	}

	provider := ed25519.NewED25519Provider()
	signers := make([]Signer, 0, len(keys))
	for _, k := range keys {
		sig, err := provider.SignMessage(digest[:], k.PrivateKey)
		if err != nil {
			return err
		}
		signers = append(signers, Signer{Account: k.Address, Signature: sig})
	}
	common.Signers = signers
	return nil
}
