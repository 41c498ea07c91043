package payment

import (
	"sort"

	"mandira-backend/internal/balance"

	"github.com/shopspring/decimal"
)

// PeriodOutstanding: dağıtım motoruna girdi — hedef ay ve o ayın
// çağıran tarafından hesaplanmış kalan borcu.
type PeriodOutstanding struct {
	Period      balance.Period
	Outstanding decimal.Decimal
}

// PeriodAmount: dağıtım motorunun çıktısı — bir aya düşen pay.
// PaymentAllocation satırı olarak yazılır.
type PeriodAmount struct {
	Period balance.Period
	Amount decimal.Decimal
}

// Allocate: tahsilat tutarını hedef ayların borçlarına dağıtır.
// Kurallar sabit, kullanıcı tarafından değiştirilemez:
//   - aylar kronolojik sıralanır, dağıtım EN ESKİ aydan başlar
//   - her aya min(kalan, borç) yazılır; borcu olmayan ay atlanır
//   - kalan sıfıra inince durur
//   - bütün aylar bittiğinde artan tutar dağıtılmaz ve iade edilmez;
//     tahsilatın kayıtlı tutarı olduğu gibi kalır (fazla ödeme)
//
// Saf fonksiyon: veri okumaz/yazmaz, aynı girdiyle hep aynı çıktı.
func Allocate(amount decimal.Decimal, periods []PeriodOutstanding) []PeriodAmount {
	sorted := make([]PeriodOutstanding, len(periods))
	copy(sorted, periods)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Period.Before(sorted[j].Period)
	})

	remaining := amount
	out := make([]PeriodAmount, 0, len(sorted))

	for _, po := range sorted {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		if po.Outstanding.LessThanOrEqual(decimal.Zero) {
			continue // zaten kapanmış / fazla ödenmiş ay
		}

		alloc := decimal.Min(remaining, po.Outstanding)
		out = append(out, PeriodAmount{Period: po.Period, Amount: alloc})
		remaining = remaining.Sub(alloc)
	}

	return out
}
