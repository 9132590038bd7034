package proration

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	calc := NewCalculator()
	ctx := context.Background()

	tests := []struct {
		name   string
		params Params
		want   string
	}{
		{
			name: "upgrade ten days into a monthly cycle",
			params: Params{
				NewCycleTotal:   decimal.NewFromInt(100),
				OldCycleTotal:   decimal.NewFromInt(60),
				CycleLengthDays: 30,
				ElapsedDays:     10,
			},
			want: "80",
		},
		{
			name: "downgrade can produce a net credit",
			params: Params{
				NewCycleTotal:   decimal.NewFromInt(10),
				OldCycleTotal:   decimal.NewFromInt(60),
				CycleLengthDays: 30,
				ElapsedDays:     10,
			},
			want: "-10",
		},
		{
			name: "no elapsed time charges the full new price",
			params: Params{
				NewCycleTotal:   decimal.NewFromInt(100),
				OldCycleTotal:   decimal.NewFromInt(60),
				CycleLengthDays: 30,
				ElapsedDays:     0,
			},
			want: "100",
		},
		{
			name: "fully elapsed cycle refunds the whole old price",
			params: Params{
				NewCycleTotal:   decimal.NewFromInt(100),
				OldCycleTotal:   decimal.NewFromInt(60),
				CycleLengthDays: 30,
				ElapsedDays:     30,
			},
			want: "40",
		},
		{
			name: "free old product refunds nothing",
			params: Params{
				NewCycleTotal:   decimal.NewFromInt(100),
				OldCycleTotal:   decimal.Zero,
				CycleLengthDays: 30,
				ElapsedDays:     15,
			},
			want: "100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Calculate(ctx, tt.params)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got),
				"want %s got %s", tt.want, got)
		})
	}
}

func TestCalculateKeepsFullPrecision(t *testing.T) {
	calc := NewCalculator()

	// 50/30*10 does not terminate in decimal; rounding is deferred to the
	// line item write
	got, err := calc.Calculate(context.Background(), Params{
		NewCycleTotal:   decimal.NewFromInt(100),
		OldCycleTotal:   decimal.NewFromInt(50),
		CycleLengthDays: 30,
		ElapsedDays:     10,
	})
	require.NoError(t, err)

	rounded := RoundAmount(got)
	assert.Equal(t, "83.33", rounded.StringFixed(2))
}

func TestCalculateValidation(t *testing.T) {
	calc := NewCalculator()
	ctx := context.Background()

	tests := []struct {
		name   string
		params Params
	}{
		{
			name: "zero cycle length",
			params: Params{
				NewCycleTotal:   decimal.NewFromInt(100),
				OldCycleTotal:   decimal.NewFromInt(60),
				CycleLengthDays: 0,
				ElapsedDays:     10,
			},
		},
		{
			name: "negative elapsed days",
			params: Params{
				NewCycleTotal:   decimal.NewFromInt(100),
				OldCycleTotal:   decimal.NewFromInt(60),
				CycleLengthDays: 30,
				ElapsedDays:     -1,
			},
		},
		{
			name: "negative cycle total",
			params: Params{
				NewCycleTotal:   decimal.NewFromInt(-1),
				OldCycleTotal:   decimal.NewFromInt(60),
				CycleLengthDays: 30,
				ElapsedDays:     10,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.Calculate(ctx, tt.params)
			assert.Error(t, err)
		})
	}
}

func TestElapsedDays(t *testing.T) {
	day := func(d int, hour int) time.Time {
		return time.Date(2024, time.June, d, hour, 0, 0, 0, time.UTC)
	}

	assert.Equal(t, 10, ElapsedDays(day(1, 0), day(11, 0)))
	assert.Equal(t, 10, ElapsedDays(day(1, 23), day(11, 1)), "partial days truncate to day boundaries")
	assert.Equal(t, 0, ElapsedDays(day(11, 0), day(11, 12)), "same day counts as zero")
	assert.Equal(t, 0, ElapsedDays(day(20, 0), day(11, 0)), "start after now clamps to zero")
}

func TestRoundAmount(t *testing.T) {
	assert.Equal(t, "83.33", RoundAmount(decimal.RequireFromString("83.333333")).StringFixed(2))
	assert.Equal(t, "83.34", RoundAmount(decimal.RequireFromString("83.335")).StringFixed(2))
	assert.Equal(t, "-10.67", RoundAmount(decimal.RequireFromString("-10.666666")).StringFixed(2))
}
