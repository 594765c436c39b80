package entry

// Validation limits shared by configuration entries
const (
	// BasisPointsDenominator is the denominator of fee and royalty rates.
	BasisPointsDenominator uint64 = 10000

	// MaxSymbolLength bounds a collection symbol.
	MaxSymbolLength = 10

	// MaxNameLength bounds a collection name, in bytes.
	MaxNameLength = 32
)
