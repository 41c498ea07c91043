package sale

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBatchCodeTwoTypes(t *testing.T) {
	entries, err := ParseBatchCode("1-2-CB")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.True(t, entries[0].Quantity.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, 'C', entries[0].Initial)
	assert.True(t, entries[1].Quantity.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, 'B', entries[1].Initial)
}

func TestParseBatchCodeSingleType(t *testing.T) {
	entries, err := ParseBatchCode("5-C")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Quantity.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, 'C', entries[0].Initial)
}

func TestParseBatchCodeFractionalQuantity(t *testing.T) {
	entries, err := ParseBatchCode("1.5-C")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Quantity.Equal(decimal.RequireFromString("1.5")))
}

func TestParseBatchCodeLowercaseLetters(t *testing.T) {
	entries, err := ParseBatchCode("2-3-cb")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 'C', entries[0].Initial)
	assert.Equal(t, 'B', entries[1].Initial)
}

func TestParseBatchCodeErrors(t *testing.T) {
	cases := []struct {
		name string
		code string
	}{
		{"bos", ""},
		{"tek parca", "10"},
		{"miktar harf uyumsuz", "1-CB"},
		{"fazla miktar", "1-2-3-CB"},
		{"sifir miktar", "0-C"},
		{"negatif miktar", "-1-C"},
		{"sayi olmayan miktar", "x-C"},
		{"harf yerine rakam", "1-9"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseBatchCode(tc.code)
			assert.Error(t, err, "code=%q", tc.code)
		})
	}
}
