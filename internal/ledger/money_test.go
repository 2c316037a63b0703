package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCheckAmount(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		allowZero bool
		wantErr   bool
	}{
		{"positive", "100.00", false, false},
		{"smallest representable", "0.01", false, false},
		{"integer", "500", false, false},
		{"zero rejected", "0", false, true},
		{"zero allowed", "0", true, false},
		{"negative", "-10.00", false, true},
		{"negative even when zero allowed", "-0.01", true, true},
		{"three decimal places", "10.001", false, true},
		{"three decimal places, zero allowed", "0.001", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAmount(dec(tt.value), tt.allowZero)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidAmount)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClampBalance(t *testing.T) {
	assert.True(t, clampBalance(dec("0.009")).IsZero())
	assert.True(t, clampBalance(dec("-0.009")).IsZero())
	assert.True(t, clampBalance(decimal.Zero).IsZero())

	// At or above the threshold nothing changes.
	assert.True(t, clampBalance(dec("0.01")).Equal(dec("0.01")))
	assert.True(t, clampBalance(dec("123.45")).Equal(dec("123.45")))
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, StatusActive, deriveStatus(dec("0.01")))
	assert.Equal(t, StatusActive, deriveStatus(dec("1000.00")))
	assert.Equal(t, StatusFullyCommitted, deriveStatus(decimal.Zero))
	assert.Equal(t, StatusFullyCommitted, deriveStatus(dec("0.005")))
}

func TestApplyDebitCredit(t *testing.T) {
	nc := &CreditNote{
		Value:            dec("100.00"),
		AvailableBalance: dec("100.00"),
		Status:           StatusActive,
	}

	nc.applyDebit(dec("99.99"))
	assert.True(t, nc.AvailableBalance.Equal(dec("0.01")))
	assert.Equal(t, StatusActive, nc.Status)

	nc.applyDebit(dec("0.01"))
	assert.True(t, nc.AvailableBalance.IsZero())
	assert.Equal(t, StatusFullyCommitted, nc.Status)

	nc.applyCredit(dec("40.00"))
	assert.True(t, nc.AvailableBalance.Equal(dec("40.00")))
	assert.Equal(t, StatusActive, nc.Status)
}
