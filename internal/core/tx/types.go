package tx

// Type represents a transaction type
type Type uint16

// Transaction types
const (
	TypeCreateMarketplace  Type = 1
	TypeSetMarketplaceFee  Type = 2
	TypeCreateCollection   Type = 3
	TypeSignOffCollection  Type = 4
	TypeCreateTokenAccount Type = 5
	TypeSellAsset          Type = 10
	TypeBuy                Type = 11
	TypeCancelSellOrder    Type = 12
)

var typeNames = map[Type]string{
	TypeCreateMarketplace:  "CreateMarketplace",
	TypeSetMarketplaceFee:  "SetMarketplaceFee",
	TypeCreateCollection:   "CreateCollection",
	TypeSignOffCollection:  "SignOffCollection",
	TypeCreateTokenAccount: "CreateTokenAccount",
	TypeSellAsset:          "SellAsset",
	TypeBuy:                "Buy",
	TypeCancelSellOrder:    "CancelSellOrder",
}

// String returns the string representation of the transaction type
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// TypeFromName returns the transaction type for a given name
func TypeFromName(name string) (Type, bool) {
	for t, n := range typeNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}
