package cli

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	addresscodec "github.com/LeJamon/goMarketd/internal/codec/address-codec"
	"github.com/LeJamon/goMarketd/internal/crypto"
	ed25519 "github.com/LeJamon/goMarketd/internal/crypto/algorithms/ed25519"
	"github.com/spf13/cobra"
)

var keysSeed string

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Derive an account keypair",
	Long: `Derive an ed25519 account keypair. The same --seed always yields the same
account. Without --seed a random seed is generated and printed as hex.`,
	Args: cobra.NoArgs,
	RunE: runKeys,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.Flags().StringVar(&keysSeed, "seed", "", "seed to derive the keypair from")
}

type keysOutput struct {
	Address    string `json:"address"`
	PrivateKey string `json:"private_key"`
	Seed       string `json:"seed,omitempty"`
}

func runKeys(cmd *cobra.Command, args []string) error {
	var (
		seed []byte
		out  keysOutput
	)
	if keysSeed != "" {
		seed = []byte(keysSeed)
	} else {
		random, err := crypto.RandomSeed()
		if err != nil {
			return err
		}
		seed = random
		out.Seed = strings.ToUpper(hex.EncodeToString(random))
	}
	defer crypto.SecureErase(seed)

	priv, id, err := ed25519.NewED25519Provider().GenerateKeypair(seed)
	if err != nil {
		return fmt.Errorf("derive keypair: %w", err)
	}
	out.Address = addresscodec.Encode(id)
	out.PrivateKey = priv

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
