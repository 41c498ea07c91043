package sale

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// BatchEntry: kısa kod girişinden çözülmüş tek kalem.
// "1-2-CB" → [{1, C}, {2, B}]
type BatchEntry struct {
	Quantity decimal.Decimal
	Initial  rune // süt çeşidi adının ilk harfi, büyük
}

// ParseBatchCode: sahadaki hızlı giriş formatını çözer. Tire ile
// ayrılmış parçaların sonuncusu çeşit harfleri, öncekiler litre
// miktarlarıdır. Miktar sayısı ile harf sayısı eşleşmek zorunda.
func ParseBatchCode(code string) ([]BatchEntry, error) {
	parts := strings.Split(strings.TrimSpace(code), "-")
	if len(parts) < 2 {
		return nil, fmt.Errorf("kod en az bir miktar ve çeşit harfi içermeli: %q", code)
	}

	letters := []rune(strings.ToUpper(strings.TrimSpace(parts[len(parts)-1])))
	quantities := parts[:len(parts)-1]

	if len(letters) == 0 {
		return nil, fmt.Errorf("çeşit harfi eksik: %q", code)
	}
	if len(quantities) != len(letters) {
		return nil, fmt.Errorf("miktar sayısı (%d) ile çeşit harfi sayısı (%d) uyuşmuyor: %q",
			len(quantities), len(letters), code)
	}

	entries := make([]BatchEntry, 0, len(letters))
	for i, qStr := range quantities {
		q, err := decimal.NewFromString(strings.TrimSpace(qStr))
		if err != nil || !q.IsPositive() {
			return nil, fmt.Errorf("geçersiz miktar %q: %s", qStr, code)
		}
		if !unicode.IsLetter(letters[i]) {
			return nil, fmt.Errorf("geçersiz çeşit harfi %q: %s", string(letters[i]), code)
		}
		entries = append(entries, BatchEntry{Quantity: q, Initial: letters[i]})
	}
	return entries, nil
}
