package payment

import (
	"testing"

	"mandira-backend/internal/balance"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	out, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return out
}

func po(year, month int, outstanding string) PeriodOutstanding {
	return PeriodOutstanding{
		Period:      balance.Period{Year: year, Month: month},
		Outstanding: d(outstanding),
	}
}

func TestAllocateExactCover(t *testing.T) {
	got := Allocate(d("250"), []PeriodOutstanding{
		po(2026, 1, "100"),
		po(2026, 2, "150"),
	})

	require.Len(t, got, 2)
	assert.Equal(t, balance.Period{Year: 2026, Month: 1}, got[0].Period)
	assert.True(t, got[0].Amount.Equal(d("100")))
	assert.Equal(t, balance.Period{Year: 2026, Month: 2}, got[1].Period)
	assert.True(t, got[1].Amount.Equal(d("150")))
}

func TestAllocateOldestFirst(t *testing.T) {
	// girdi sırası karışık; dağıtım yine en eski aydan başlamalı
	got := Allocate(d("120"), []PeriodOutstanding{
		po(2026, 3, "100"),
		po(2025, 12, "100"),
		po(2026, 1, "100"),
	})

	require.Len(t, got, 2)
	assert.Equal(t, balance.Period{Year: 2025, Month: 12}, got[0].Period)
	assert.True(t, got[0].Amount.Equal(d("100")))
	assert.Equal(t, balance.Period{Year: 2026, Month: 1}, got[1].Period)
	assert.True(t, got[1].Amount.Equal(d("20")))
}

func TestAllocateSkipsSettledMonths(t *testing.T) {
	got := Allocate(d("50"), []PeriodOutstanding{
		po(2026, 1, "0"),
		po(2026, 2, "-30"), // fazla ödenmiş ay
		po(2026, 3, "80"),
	})

	require.Len(t, got, 1)
	assert.Equal(t, balance.Period{Year: 2026, Month: 3}, got[0].Period)
	assert.True(t, got[0].Amount.Equal(d("50")))
}

func TestAllocateOverpaymentLeavesRemainder(t *testing.T) {
	got := Allocate(d("300"), []PeriodOutstanding{
		po(2026, 1, "100"),
		po(2026, 2, "150"),
	})

	sum := decimal.Zero
	for _, a := range got {
		sum = sum.Add(a.Amount)
	}
	// artan 50 TL hiçbir aya yazılmaz
	assert.True(t, sum.Equal(d("250")))
}

func TestAllocateStopsWhenExhausted(t *testing.T) {
	got := Allocate(d("100"), []PeriodOutstanding{
		po(2026, 1, "100"),
		po(2026, 2, "150"),
		po(2026, 3, "80"),
	})

	require.Len(t, got, 1)
	assert.Equal(t, balance.Period{Year: 2026, Month: 1}, got[0].Period)
	assert.True(t, got[0].Amount.Equal(d("100")))
}

func TestAllocateFractionalAmounts(t *testing.T) {
	got := Allocate(d("100.50"), []PeriodOutstanding{
		po(2026, 1, "60.25"),
		po(2026, 2, "90.75"),
	})

	require.Len(t, got, 2)
	assert.True(t, got[0].Amount.Equal(d("60.25")))
	assert.True(t, got[1].Amount.Equal(d("40.25")))
}

func TestAllocateEmptyInputs(t *testing.T) {
	assert.Empty(t, Allocate(d("100"), nil))
	assert.Empty(t, Allocate(d("0"), []PeriodOutstanding{po(2026, 1, "100")}))
}

func TestAllocateDeterministic(t *testing.T) {
	in := []PeriodOutstanding{
		po(2026, 2, "70"),
		po(2026, 1, "40"),
	}
	first := Allocate(d("90"), in)
	second := Allocate(d("90"), in)
	assert.Equal(t, first, second)
	// girdi dilimi değişmemiş olmalı
	assert.Equal(t, balance.Period{Year: 2026, Month: 2}, in[0].Period)
}
