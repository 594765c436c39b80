package tx

import (
	"encoding/hex"
	"errors"
	"strings"

	addresscodec "github.com/LeJamon/goMarketd/internal/codec/address-codec"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
	"github.com/LeJamon/goMarketd/internal/crypto/algorithms/ed25519"
)

// MaxSigners bounds the authorizations attached to one transaction.
const MaxSigners = 8

// Engine processes transactions against a ledger
type Engine struct {
	view   LedgerView
	config EngineConfig
	signer *ed25519.ED25519SignatureProvider
}

// EngineConfig holds configuration for the transaction engine
type EngineConfig struct {
	// LedgerSequence is the sequence the next applied transaction receives
	LedgerSequence uint32

	// EntryRent is charged from the payer's wallet for every record created
	// and refunded when the record is closed.
	EntryRent uint64

	// VerifySignatures enables ed25519 verification of every signer.
	// When false only the presence of the required signers is checked.
	VerifySignatures bool
}

// LedgerView provides read/write access to ledger state.
// Read returns nil data and no error for a missing entry.
type LedgerView interface {
	Read(k keylet.Keylet) ([]byte, error)
	Exists(k keylet.Keylet) (bool, error)
	Insert(k keylet.Keylet, data []byte) error
	Update(k keylet.Keylet, data []byte) error
	Erase(k keylet.Keylet) error

	// ForEach iterates over all state entries
	// If fn returns false, iteration stops early
	ForEach(fn func(key [32]byte, data []byte) bool) error
}

// ApplyResult contains the result of applying a transaction
type ApplyResult struct {
	// Result is the transaction result code
	Result Result

	// Applied indicates if the transaction was applied to the ledger
	Applied bool

	// Hash is the transaction ID
	Hash [32]byte

	// Metadata contains the changes made by the transaction
	Metadata *Metadata

	// Message is a human-readable result message
	Message string
}

// Node types reported in metadata
const (
	NodeCreated  = "CreatedNode"
	NodeModified = "ModifiedNode"
	NodeDeleted  = "DeletedNode"
)

// Metadata tracks changes made by a transaction
type Metadata struct {
	AffectedNodes     []AffectedNode `json:"AffectedNodes"`
	TransactionResult Result         `json:"-"`
}

// AffectedNode names one created, modified or deleted entry
type AffectedNode struct {
	NodeType        string `json:"NodeType"`
	LedgerEntryType string `json:"LedgerEntryType"`
	LedgerIndex     string `json:"LedgerIndex"`
}

func newAffectedNode(nodeType string, k keylet.Keylet) AffectedNode {
	return AffectedNode{
		NodeType:        nodeType,
		LedgerEntryType: k.Type.String(),
		LedgerIndex:     strings.ToUpper(hex.EncodeToString(k.Key[:])),
	}
}

// NewEngine creates a new transaction engine
func NewEngine(view LedgerView, config EngineConfig) *Engine {
	return &Engine{
		view:   view,
		config: config,
		signer: ed25519.NewED25519Provider(),
	}
}

// Apply processes a transaction and applies it to the ledger. Every result
// other than tesSUCCESS leaves the view untouched.
func (e *Engine) Apply(tx Transaction) ApplyResult {
	// Step 1: Preflight checks (syntax and signatures)
	result := e.preflight(tx)
	if !result.IsSuccess() {
		return notApplied(result, [32]byte{})
	}

	txHash, err := Hash(tx)
	if err != nil {
		return ApplyResult{Result: TefINTERNAL, Message: "failed to compute transaction hash: " + err.Error()}
	}

	// Step 2: Preclaim checks against the ledger position
	common := tx.GetCommon()
	if common.LastLedgerSequence != nil && e.config.LedgerSequence > *common.LastLedgerSequence {
		return notApplied(TefMAX_LEDGER, txHash)
	}

	// Step 3: Type-specific application through the table
	table := NewApplyStateTable(e.view, txHash, e.config.LedgerSequence)
	accountID, _ := common.AccountID()
	ctx := &ApplyContext{
		View:      table,
		AccountID: accountID,
		Config:    e.config,
		TxHash:    txHash,
		signers:   signerSet(common),
	}

	appliable, ok := tx.(Appliable)
	if !ok {
		return notApplied(TemINVALID, txHash)
	}
	result = appliable.Apply(ctx)

	// Step 4: Optimistic concurrency check over everything the table read
	if common.StateSequence != nil && table.LatestObservedSequence() > *common.StateSequence {
		return notApplied(TefPAST_SEQ, txHash)
	}
	if !result.IsSuccess() {
		return notApplied(result, txHash)
	}

	// Step 5: Commit all tracked changes to the base view
	metadata, err := table.Apply()
	if err != nil {
		return ApplyResult{Result: TefINTERNAL, Hash: txHash, Message: "failed to apply changes: " + err.Error()}
	}
	metadata.TransactionResult = TesSUCCESS

	return ApplyResult{
		Result:   TesSUCCESS,
		Applied:  true,
		Hash:     txHash,
		Metadata: metadata,
		Message:  TesSUCCESS.Message(),
	}
}

func notApplied(r Result, hash [32]byte) ApplyResult {
	return ApplyResult{Result: r, Hash: hash, Message: r.Message()}
}

// preflight validates the transaction without reading ledger state
func (e *Engine) preflight(tx Transaction) Result {
	common := tx.GetCommon()

	if common.TransactionType != tx.TxType().String() {
		return TemINVALID
	}

	if err := tx.Validate(); err != nil {
		return parseValidationError(err)
	}

	return e.checkSigners(tx)
}

// checkSigners requires the submitting account among the signers, rejects
// duplicates and, when enabled, verifies every signature over the signing
// hash.
func (e *Engine) checkSigners(tx Transaction) Result {
	common := tx.GetCommon()

	if len(common.Signers) == 0 || len(common.Signers) > MaxSigners {
		return TemBAD_SIGNATURE
	}

	var digest [32]byte
	if e.config.VerifySignatures {
		var err error
		if digest, err = SigningHash(tx); err != nil {
			return TefINTERNAL
		}
	}

	seen := make(map[string]bool, len(common.Signers))
	for _, s := range common.Signers {
		if seen[s.Account] {
			return TemBAD_SIGNER
		}
		seen[s.Account] = true

		id, err := addresscodec.Decode(s.Account)
		if err != nil {
			return TemBAD_SIGNER
		}
		if e.config.VerifySignatures && !e.signer.VerifySignature(digest[:], id, s.Signature) {
			return TemBAD_SIGNATURE
		}
	}

	if !seen[common.Account] {
		return TemBAD_SIGNATURE
	}
	return TesSUCCESS
}

func signerSet(common *Common) map[[32]byte]bool {
	set := make(map[[32]byte]bool, len(common.Signers))
	for _, s := range common.Signers {
		if id, err := addresscodec.Decode(s.Account); err == nil {
			set[id] = true
		}
	}
	return set
}

// parseValidationError maps a Validate error to its result code. Errors
// are expected to start with a code name such as "temBAD_AMOUNT:".
func parseValidationError(err error) Result {
	var re *ResultError
	if errors.As(err, &re) {
		return re.Result
	}

	msg := err.Error()
	if i := strings.IndexAny(msg, ": "); i > 0 {
		msg = msg[:i]
	}
	if r, ok := ResultFromName(msg); ok && r.IsTem() {
		return r
	}
	return TemMALFORMED
}
