package types

import (
	"fmt"
	"strings"
)

// Amount is a quantity of native currency (dough) in base units.
// All arithmetic on amounts is exact integer arithmetic; there is no
// floating-point representation anywhere in the system.
type Amount uint64

// Native currency denominations, in base units.
// 1 DOH = 10^12 base units.
const (
	Coin      Amount = 1_000_000_000_000
	MilliCoin Amount = 1_000_000_000
	MicroCoin Amount = 1_000_000

	// AmountDecimals is the number of decimal places in one coin.
	AmountDecimals = 12
)

// CoinSymbol is the native currency ticker.
const CoinSymbol = "DOH"

// String formats the amount as a decimal coin value, trailing zeros trimmed
// (e.g. 500000000 base units -> "0.0005").
func (a Amount) String() string {
	whole := uint64(a) / uint64(Coin)
	frac := uint64(a) % uint64(Coin)
	if frac == 0 {
		return fmt.Sprintf("%d", whole)
	}
	s := fmt.Sprintf("%d.%012d", whole, frac)
	return strings.TrimRight(s, "0")
}

// AddChecked returns a+b, or an error on uint64 overflow.
func (a Amount) AddChecked(b Amount) (Amount, error) {
	sum := a + b
	if sum < a {
		return 0, fmt.Errorf("amount overflow: %d + %d", a, b)
	}
	return sum, nil
}

// ParseAmount parses a decimal coin string (e.g. "0.0014", "2", "10.5")
// into base units. At most AmountDecimals fractional digits are allowed;
// the conversion is exact or it fails.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	wholeStr := s
	fracStr := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		wholeStr = s[:idx]
		fracStr = s[idx+1:]
	}
	if wholeStr == "" && fracStr == "" {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if len(fracStr) > AmountDecimals {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", s, AmountDecimals)
	}

	var whole uint64
	for _, c := range wholeStr {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		d := uint64(c - '0')
		if whole > (^uint64(0)-d)/10 {
			return 0, fmt.Errorf("amount %q overflows", s)
		}
		whole = whole*10 + d
	}

	var frac uint64
	for _, c := range fracStr {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		frac = frac*10 + uint64(c-'0')
	}
	// Scale the fraction up to 12 digits.
	for i := len(fracStr); i < AmountDecimals; i++ {
		frac *= 10
	}

	if whole > (^uint64(0)-frac)/uint64(Coin) {
		return 0, fmt.Errorf("amount %q overflows", s)
	}
	return Amount(whole*uint64(Coin) + frac), nil
}
