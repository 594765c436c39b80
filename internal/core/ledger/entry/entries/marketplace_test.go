package entries

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarketplace_Validate(t *testing.T) {
	m := &Marketplace{
		Owner:       AccountID{1},
		PaymentMint: AccountID{2},
		FeeRateBps:  5,
		FeeAccount:  AccountID{3},
	}
	assert.NoError(t, m.Validate())

	m.FeeRateBps = 10001
	assert.EqualError(t, m.Validate(), "fee rate exceeds 10000 basis points")

	m.FeeRateBps = 0
	m.FeeAccount = AccountID{}
	assert.EqualError(t, m.Validate(), "fee account is required")
}
