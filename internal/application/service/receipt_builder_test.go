package service

import (
	"math"
	"testing"
	"time"

	"github.com/sangkips/recibo-api/internal/domain/entity"
	"github.com/sangkips/recibo-api/internal/domain/enum"
	"github.com/sangkips/recibo-api/pkg/apperror"
	"github.com/sangkips/recibo-api/pkg/callnumber"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqSource hands out draws from a fixed list, repeating the last one
type seqSource struct {
	draws []int
	i     int
}

func (s *seqSource) Intn(n int) int {
	v := s.draws[len(s.draws)-1]
	if s.i < len(s.draws) {
		v = s.draws[s.i]
	}
	s.i++
	return v % n
}

var fixedNow = time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)

func TestComputeTotal(t *testing.T) {
	tests := []struct {
		name    string
		lines   []entity.CartLine
		want    int64
		wantErr error
	}{
		{
			name: "burger and soda",
			lines: []entity.CartLine{
				{Name: "Burger", Quantity: 2, UnitPrice: 1500},
				{Name: "Soda", Quantity: 3, UnitPrice: 500},
			},
			want: 4500,
		},
		{name: "empty", lines: nil, want: 0},
		{name: "free item", lines: []entity.CartLine{{Name: "Water", Quantity: 4, UnitPrice: 0}}, want: 0},
		{
			name:    "multiplication overflow",
			lines:   []entity.CartLine{{Name: "Gold", Quantity: 3, UnitPrice: math.MaxInt64 / 2}},
			wantErr: apperror.ErrTotalOverflow,
		},
		{
			name: "addition overflow",
			lines: []entity.CartLine{
				{Name: "A", Quantity: 1, UnitPrice: math.MaxInt64},
				{Name: "B", Quantity: 1, UnitPrice: 1},
			},
			wantErr: apperror.ErrTotalOverflow,
		},
		{
			name:  "max value fits",
			lines: []entity.CartLine{{Name: "A", Quantity: 1, UnitPrice: math.MaxInt64}},
			want:  math.MaxInt64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeTotal(tt.lines)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReceiptBuilder_Build(t *testing.T) {
	b := NewReceiptBuilder(callnumber.NewAllocator(&seqSource{draws: []int{42}}), func() time.Time { return fixedNow })

	lines := []entity.CartLine{
		{Name: "Burger", Quantity: 2, UnitPrice: 1500},
		{Name: "Soda", Quantity: 3, UnitPrice: 500},
	}
	r, err := b.Build(BuildInput{
		Lines:         lines,
		Notes:         "sem gelo",
		PaymentMethod: "DINHEIRO",
		ServiceType:   enum.ServiceTypeNormal,
	}, callnumber.NewSet())
	require.NoError(t, err)

	assert.Equal(t, "0042", r.CallNumber)
	assert.Equal(t, fixedNow, r.CreatedAt)
	assert.Equal(t, int64(4500), r.Total)
	assert.Equal(t, "sem gelo", r.Notes)
	assert.Equal(t, "DINHEIRO", r.PaymentMethod)
	assert.Equal(t, enum.ServiceTypeNormal, r.ServiceType)
	assert.Equal(t, lines, r.Lines)

	// The receipt does not alias the caller's slice
	lines[0].Name = "Changed"
	assert.Equal(t, "Burger", r.Lines[0].Name)
}

func TestReceiptBuilder_SkipsLiveCodes(t *testing.T) {
	b := NewReceiptBuilder(callnumber.NewAllocator(&seqSource{draws: []int{1, 1, 2}}), nil)

	r, err := b.Build(BuildInput{ServiceType: enum.ServiceTypePreferential}, callnumber.NewSet("0001"))
	require.NoError(t, err)
	assert.Equal(t, "0002", r.CallNumber)
	assert.NotNil(t, r.Lines)
	assert.Empty(t, r.Lines)
}

func TestReceiptBuilder_Exhausted(t *testing.T) {
	full := make(callnumber.Set, callnumber.Space)
	for i := 0; i < callnumber.Space; i++ {
		full.Add(callnumber.Format(i))
	}
	b := NewReceiptBuilder(nil, nil)

	_, err := b.Build(BuildInput{ServiceType: enum.ServiceTypeNormal}, full)
	assert.ErrorIs(t, err, apperror.ErrCallNumbersExhausted)
}

func TestReceiptBuilder_OverflowBeforeAllocation(t *testing.T) {
	src := &seqSource{draws: []int{5}}
	b := NewReceiptBuilder(callnumber.NewAllocator(src), nil)

	_, err := b.Build(BuildInput{
		Lines: []entity.CartLine{{Name: "A", Quantity: math.MaxInt32, UnitPrice: math.MaxInt64}},
	}, callnumber.NewSet())
	assert.ErrorIs(t, err, apperror.ErrTotalOverflow)
	assert.Zero(t, src.i)
}

func TestReceiptBuilder_DefaultClockIsUTC(t *testing.T) {
	b := NewReceiptBuilder(nil, nil)

	r, err := b.Build(BuildInput{ServiceType: enum.ServiceTypePreferential}, nil)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, r.CreatedAt.Location())
	assert.WithinDuration(t, time.Now(), r.CreatedAt, time.Minute)
	assert.True(t, callnumber.Valid(r.CallNumber))
}
