package testing

import (
	"testing"

	"github.com/LeJamon/goMarketd/internal/core/tx"
	"github.com/stretchr/testify/require"
)

// RequireTxSuccess asserts that a transaction result indicates success.
func RequireTxSuccess(t *testing.T, result TxResult) {
	t.Helper()
	require.True(t, result.Success,
		"Expected transaction success, got %s: %s", result.Code, result.Message)
	require.Equal(t, "tesSUCCESS", result.Code)
}

// RequireTxFail asserts that a transaction failed with a specific result.
func RequireTxFail(t *testing.T, result TxResult, expected tx.Result) {
	t.Helper()
	require.False(t, result.Success,
		"Expected transaction failure with code %s, but transaction succeeded", expected)
	require.Equal(t, expected.String(), result.Code,
		"Expected failure code %s, got %s: %s", expected, result.Code, result.Message)
}

// RequireKind asserts the error taxonomy kind of a result.
func RequireKind(t *testing.T, result TxResult, kind tx.Kind) {
	t.Helper()
	require.Equal(t, kind, result.Result.Kind(),
		"Expected kind %s, got %s (%s)", kind, result.Result.Kind(), result.Code)
}

// RequireTokenBalance asserts the balance of owner's derived token account.
func RequireTokenBalance(t *testing.T, env *TestEnv, owner *Account, mint Mint, expected uint64) {
	t.Helper()
	actual := env.TokenBalance(owner, mint)
	require.Equal(t, expected, actual,
		"Account %s balance of %s mismatch: expected %d, got %d",
		owner.Name, mint.Name, expected, actual)
}

// RequireNativeBalance asserts acc's wallet balance.
func RequireNativeBalance(t *testing.T, env *TestEnv, acc *Account, expected uint64) {
	t.Helper()
	actual := env.NativeBalance(acc)
	require.Equal(t, expected, actual,
		"Account %s native balance mismatch: expected %d, got %d", acc.Name, expected, actual)
}

// RequireStateUnchanged asserts the ledger matches an earlier Snapshot.
func RequireStateUnchanged(t *testing.T, env *TestEnv, before map[[32]byte]string) {
	t.Helper()
	require.Equal(t, before, env.Snapshot(), "ledger state changed")
}
