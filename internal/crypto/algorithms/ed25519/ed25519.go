package ed25519

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"strings"

	crypto "github.com/LeJamon/goMarketd/internal/crypto/common"
)

// ED25519SignatureProvider signs and verifies transaction digests. An
// account identifier is the raw 32-byte ed25519 public key.
type ED25519SignatureProvider struct{}

// ErrInvalidPrivateKey is returned for a key that is not a hex 32-byte seed.
var ErrInvalidPrivateKey = errors.New("invalid private key format")

func NewED25519Provider() *ED25519SignatureProvider {
	return &ED25519SignatureProvider{}
}

// GenerateKeypair derives a keypair deterministically from seed. The
// returned private key is the hex-encoded 32-byte ed25519 seed.
func (p *ED25519SignatureProvider) GenerateKeypair(seed []byte) (string, [32]byte, error) {
	keyMaterial := crypto.Sha512Half(seed)
	pubKey, privKey, err := ed25519.GenerateKey(bytes.NewBuffer(keyMaterial[:]))
	if err != nil {
		return "", [32]byte{}, err
	}

	var account [32]byte
	copy(account[:], pubKey)

	return strings.ToUpper(hex.EncodeToString(privKey.Seed())), account, nil
}

// PrivateKey parses a hex-encoded private key seed.
func (p *ED25519SignatureProvider) PrivateKey(privateKeyHex string) (ed25519.PrivateKey, error) {
	seed, err := hex.DecodeString(privateKeyHex)
	if err != nil || len(seed) != ed25519.SeedSize {
		return nil, ErrInvalidPrivateKey
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

// SignMessage signs message and returns the upper-case hex signature.
func (p *ED25519SignatureProvider) SignMessage(message []byte, privateKeyHex string) (string, error) {
	signingKey, err := p.PrivateKey(privateKeyHex)
	if err != nil {
		return "", err
	}
	signature := ed25519.Sign(signingKey, message)

	return strings.ToUpper(hex.EncodeToString(signature)), nil
}

// VerifySignature reports whether signatureHex is account's signature of
// message.
func (p *ED25519SignatureProvider) VerifySignature(message []byte, account [32]byte, signatureHex string) bool {
	sigBytes, err := hex.DecodeString(signatureHex)
	if err != nil || len(sigBytes) != ed25519.SignatureSize {
		return false
	}

	return ed25519.Verify(ed25519.PublicKey(account[:]), message, sigBytes)
}
