package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Conversion primitives for the ledger's wire encodings. Each one is total
// over its documented input domain and returns an error for anything else;
// callers decide whether an error fails the record or coerces to a default.

// ParseDecimal converts the ledger's locale-formatted numeric strings
// ("1.234,56") into a decimal. Thousands separators are dots and the decimal
// separator is a comma. Plain "1234.56" input is rejected: a dot followed by
// anything other than exactly three digits is not a valid thousands group.
func ParseDecimal(s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("parse ledger decimal: empty input")
	}

	intPart := trimmed
	fracPart := ""
	if i := strings.IndexByte(trimmed, ','); i >= 0 {
		intPart, fracPart = trimmed[:i], trimmed[i+1:]
		if fracPart == "" || strings.ContainsAny(fracPart, ".,") {
			return decimal.Zero, fmt.Errorf("parse ledger decimal: malformed fraction in %q", s)
		}
	}

	neg := false
	if strings.HasPrefix(intPart, "-") {
		neg = true
		intPart = intPart[1:]
	}

	groups := strings.Split(intPart, ".")
	for i, g := range groups {
		if g == "" {
			return decimal.Zero, fmt.Errorf("parse ledger decimal: empty digit group in %q", s)
		}
		if i > 0 && len(g) != 3 {
			return decimal.Zero, fmt.Errorf("parse ledger decimal: bad thousands group in %q", s)
		}
	}

	canonical := strings.Join(groups, "")
	if fracPart != "" {
		canonical += "." + fracPart
	}
	if neg {
		canonical = "-" + canonical
	}

	d, err := decimal.NewFromString(canonical)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse ledger decimal %q: %w", s, err)
	}
	return d, nil
}

// DecimalOrZero is the lenient variant used for quantity-like fields where
// the ledger is allowed to send garbage and the agreed behavior is zero.
func DecimalOrZero(s string) decimal.Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseFlag converts the ledger's single-letter booleans. 'S' is true,
// 'N' is false, case-insensitive; anything else is an error.
func ParseFlag(s string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "S":
		return true, nil
	case "N":
		return false, nil
	default:
		return false, fmt.Errorf("parse ledger flag: expected S or N, got %q", s)
	}
}

// TrailingFilename extracts the bare filename from the OS paths the ledger
// embeds in image references. Both separator styles occur in the wild, so
// the split honors backslashes and forward slashes alike.
func TrailingFilename(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	if i := strings.LastIndexAny(trimmed, `\/`); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
