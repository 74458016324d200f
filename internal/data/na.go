package data

// naTokens are the cell values read_csv treats as missing by default.
var naTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsNA reports whether a raw cell is a missing-value token. Matching is
// exact: a whitespace-only cell is a blank string, not a missing value.
func IsNA(cell string) bool {
	_, ok := naTokens[cell]
	return ok
}
