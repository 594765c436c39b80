package entries

import (
	"testing"

	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
	"github.com/stretchr/testify/assert"
)

func TestCollection_Type(t *testing.T) {
	c := &Collection{}
	assert.Equal(t, entry.TypeCollection, c.Type())
	assert.Equal(t, "Collection", c.Type().String())
}

func TestCollection_Validate(t *testing.T) {
	valid := func() *Collection {
		return &Collection{
			Marketplace:    AccountID{1},
			Name:           "aurorian",
			Symbol:         "AURY",
			Creator:        AccountID{2},
			RoyaltyRateBps: 1000,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Collection)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Collection) {}},
		{name: "full royalty", mutate: func(c *Collection) { c.RoyaltyRateBps = 10000 }},
		{name: "missing marketplace", mutate: func(c *Collection) { c.Marketplace = AccountID{} }, wantErr: "marketplace is required"},
		{name: "missing creator", mutate: func(c *Collection) { c.Creator = AccountID{} }, wantErr: "creator is required"},
		{name: "empty symbol", mutate: func(c *Collection) { c.Symbol = "" }, wantErr: "symbol is required"},
		{name: "long symbol", mutate: func(c *Collection) { c.Symbol = "ABCDEFGHIJK" }, wantErr: "symbol exceeds 10 characters"},
		{name: "symbol with space", mutate: func(c *Collection) { c.Symbol = "AU RY" }, wantErr: "symbol contains non-printable characters"},
		{name: "long name", mutate: func(c *Collection) { c.Name = "a name that is far too long for a collection" }, wantErr: "name exceeds 32 bytes"},
		{name: "royalty over 100%", mutate: func(c *Collection) { c.RoyaltyRateBps = 10001 }, wantErr: "royalty rate exceeds 10000 basis points"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(c)
			err := c.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tc.wantErr)
		})
	}
}

func TestCollection_Tradable(t *testing.T) {
	c := &Collection{}
	assert.True(t, c.Tradable())

	c.RequireCreatorSignoff = true
	assert.False(t, c.Tradable())

	c.CreatorVerified = true
	assert.True(t, c.Tradable())
}
