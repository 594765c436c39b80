package tx

import (
	"errors"
	"fmt"
)

// Result represents a transaction result code
type Result int

// Transaction result codes, organized by category: tes, tec, tef, tem.
// Only tesSUCCESS changes the ledger; every other code leaves it untouched.
const (
	// tesSUCCESS
	TesSUCCESS Result = 0

	// tec codes (100-199): the transaction was well formed but the ledger
	// state did not allow it
	TecUNFUNDED             Result = 129
	TecNO_TARGET            Result = 138
	TecNO_PERMISSION        Result = 139
	TecNO_ENTRY             Result = 140
	TecINSUFFICIENT_RESERVE Result = 141
	TecDUPLICATE            Result = 149
	TecPRICE_COLLISION      Result = 174
	TecINSUFFICIENT_SUPPLY  Result = 175
	TecOVERFLOW             Result = 176

	// tef codes (-199 to -100): the transaction could not be applied in
	// this ledger
	TefINTERNAL   Result = -192
	TefPAST_SEQ   Result = -190
	TefMAX_LEDGER Result = -187

	// tem codes (-299 to -200): the transaction is malformed
	TemMALFORMED     Result = -299
	TemBAD_AMOUNT    Result = -298
	TemBAD_SIGNATURE Result = -282
	TemBAD_RATE      Result = -280
	TemINVALID       Result = -277
	TemBAD_SIGNER    Result = -272
)

var resultNames = map[Result]string{
	TesSUCCESS:              "tesSUCCESS",
	TecUNFUNDED:             "tecUNFUNDED",
	TecNO_TARGET:            "tecNO_TARGET",
	TecNO_PERMISSION:        "tecNO_PERMISSION",
	TecNO_ENTRY:             "tecNO_ENTRY",
	TecINSUFFICIENT_RESERVE: "tecINSUFFICIENT_RESERVE",
	TecDUPLICATE:            "tecDUPLICATE",
	TecPRICE_COLLISION:      "tecPRICE_COLLISION",
	TecINSUFFICIENT_SUPPLY:  "tecINSUFFICIENT_SUPPLY",
	TecOVERFLOW:             "tecOVERFLOW",
	TefINTERNAL:             "tefINTERNAL",
	TefPAST_SEQ:             "tefPAST_SEQ",
	TefMAX_LEDGER:           "tefMAX_LEDGER",
	TemMALFORMED:            "temMALFORMED",
	TemBAD_AMOUNT:           "temBAD_AMOUNT",
	TemBAD_SIGNATURE:        "temBAD_SIGNATURE",
	TemBAD_RATE:             "temBAD_RATE",
	TemINVALID:              "temINVALID",
	TemBAD_SIGNER:           "temBAD_SIGNER",
}

// String returns the string representation of the result code
func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int(r))
}

// ResultFromName resolves a code name such as "tecNO_ENTRY".
func ResultFromName(name string) (Result, bool) {
	for r, n := range resultNames {
		if n == name {
			return r, true
		}
	}
	return 0, false
}

// IsSuccess returns true if the result indicates success
func (r Result) IsSuccess() bool {
	return r == TesSUCCESS
}

// IsTec returns true if this is a tec code
func (r Result) IsTec() bool {
	return r >= 100 && r < 200
}

// IsTef returns true if this is a tef (failure) code
func (r Result) IsTef() bool {
	return r >= -199 && r <= -100
}

// IsTem returns true if this is a tem (malformed) code
func (r Result) IsTem() bool {
	return r >= -299 && r <= -200
}

// IsApplied returns true if the transaction changed the ledger
func (r Result) IsApplied() bool {
	return r.IsSuccess()
}

// Message returns a human-readable message for the result
func (r Result) Message() string {
	switch r {
	case TesSUCCESS:
		return "The transaction was applied."
	case TecUNFUNDED:
		return "Insufficient balance to complete the transfer."
	case TecNO_TARGET:
		return "A referenced marketplace, collection or token account does not exist."
	case TecNO_PERMISSION:
		return "The signing accounts lack the required authority."
	case TecNO_ENTRY:
		return "The sell order does not exist or has no remaining quantity."
	case TecINSUFFICIENT_RESERVE:
		return "Insufficient wallet balance to pay record rent."
	case TecDUPLICATE:
		return "The record already exists."
	case TecPRICE_COLLISION:
		return "The derived sell order belongs to another seller or collection."
	case TecINSUFFICIENT_SUPPLY:
		return "The candidate orders cannot cover the requested quantity."
	case TecOVERFLOW:
		return "Arithmetic overflow."
	case TefINTERNAL:
		return "Internal error."
	case TefPAST_SEQ:
		return "State read by the transaction has since changed."
	case TefMAX_LEDGER:
		return "Ledger sequence too high."
	case TemMALFORMED:
		return "Malformed transaction."
	case TemBAD_AMOUNT:
		return "Quantities and prices must be positive."
	case TemBAD_SIGNATURE:
		return "Missing or invalid signature."
	case TemBAD_RATE:
		return "Basis point rate exceeds 10000."
	case TemINVALID:
		return "The transaction is ill-formed."
	case TemBAD_SIGNER:
		return "Duplicate signer."
	default:
		return r.String()
	}
}

// Kind groups result codes into the failure categories callers branch on.
type Kind int

const (
	KindNone Kind = iota
	KindInvalidParameter
	KindAlreadyExists
	KindOrderNotFound
	KindPriceCollision
	KindUnauthorized
	KindInsufficientSupply
	KindOverflow
	KindNotFound
	KindInsufficientFunds
	KindStaleState
	KindExpired
	KindInternal
)

var kindNames = [...]string{
	KindNone:               "None",
	KindInvalidParameter:   "InvalidParameter",
	KindAlreadyExists:      "AlreadyExists",
	KindOrderNotFound:      "OrderNotFound",
	KindPriceCollision:     "PriceCollision",
	KindUnauthorized:       "Unauthorized",
	KindInsufficientSupply: "InsufficientSupply",
	KindOverflow:           "Overflow",
	KindNotFound:           "NotFound",
	KindInsufficientFunds:  "InsufficientFunds",
	KindStaleState:         "StaleState",
	KindExpired:            "Expired",
	KindInternal:           "Internal",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Sentinel errors, one per Kind, matched with errors.Is.
var (
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrAlreadyExists      = errors.New("already exists")
	ErrOrderNotFound      = errors.New("order not found")
	ErrPriceCollision     = errors.New("price collision")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInsufficientSupply = errors.New("insufficient supply")
	ErrOverflow           = errors.New("overflow")
	ErrNotFound           = errors.New("not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrStaleState         = errors.New("stale state")
	ErrExpired            = errors.New("expired")
	ErrInternal           = errors.New("internal error")
)

var kindSentinels = map[Kind]error{
	KindInvalidParameter:   ErrInvalidParameter,
	KindAlreadyExists:      ErrAlreadyExists,
	KindOrderNotFound:      ErrOrderNotFound,
	KindPriceCollision:     ErrPriceCollision,
	KindUnauthorized:       ErrUnauthorized,
	KindInsufficientSupply: ErrInsufficientSupply,
	KindOverflow:           ErrOverflow,
	KindNotFound:           ErrNotFound,
	KindInsufficientFunds:  ErrInsufficientFunds,
	KindStaleState:         ErrStaleState,
	KindExpired:            ErrExpired,
	KindInternal:           ErrInternal,
}

// Kind maps the result code onto its failure category.
func (r Result) Kind() Kind {
	switch r {
	case TesSUCCESS:
		return KindNone
	case TemBAD_AMOUNT, TemBAD_RATE, TemMALFORMED, TemINVALID, TemBAD_SIGNER:
		return KindInvalidParameter
	case TecDUPLICATE:
		return KindAlreadyExists
	case TecNO_ENTRY:
		return KindOrderNotFound
	case TecPRICE_COLLISION:
		return KindPriceCollision
	case TecNO_PERMISSION, TemBAD_SIGNATURE:
		return KindUnauthorized
	case TecINSUFFICIENT_SUPPLY:
		return KindInsufficientSupply
	case TecOVERFLOW:
		return KindOverflow
	case TecNO_TARGET:
		return KindNotFound
	case TecUNFUNDED, TecINSUFFICIENT_RESERVE:
		return KindInsufficientFunds
	case TefPAST_SEQ:
		return KindStaleState
	case TefMAX_LEDGER:
		return KindExpired
	default:
		return KindInternal
	}
}

// ResultError is the error form of a failing Result.
type ResultError struct {
	Result Result
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s: %s", e.Result, e.Result.Message())
}

// Unwrap exposes the Kind sentinel so errors.Is matches on category.
func (e *ResultError) Unwrap() error {
	return kindSentinels[e.Result.Kind()]
}

// Err returns nil for tesSUCCESS and a *ResultError otherwise.
func (r Result) Err() error {
	if r.IsSuccess() {
		return nil
	}
	return &ResultError{Result: r}
}
