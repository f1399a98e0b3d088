package dataprocessing

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesreport/internal/errors"
	"salesreport/pkg/contracts/domain"
)

type countingProgress struct{ n int }

func (c *countingProgress) Increment() { c.n++ }

func sale(product, seller, payment string, qty, price float64) domain.Sale {
	return domain.Sale{Product: product, Salesperson: seller, PaymentMethod: payment, Quantity: qty, UnitPrice: price}
}

func TestAggregator_ComputeTotals(t *testing.T) {
	progress := &countingProgress{}
	agg := NewAggregator(quietLogger(), "").WithProgress(progress)

	in := []domain.Sale{sale("A", "Ana", "Pix", 2, 10), sale("B", "Bia", "Pix", 3, 0.1)}
	out := agg.ComputeTotals(in)

	require.Len(t, out, 2)
	assert.InDelta(t, 20.0, out[0].Total, 1e-9)
	assert.InDelta(t, 0.3, out[1].Total, 1e-9)
	assert.Zero(t, in[0].Total, "input must not be modified")
	assert.Equal(t, 2, progress.n)
}

func TestAggregator_GroupSum(t *testing.T) {
	agg := NewAggregator(quietLogger(), "Sem vendedor")

	tests := []struct {
		name  string
		sales []domain.Sale
		key   KeyFunc
		want  domain.GroupView
	}{
		{
			name:  "descending by total",
			sales: []domain.Sale{{Product: "A", Total: 5}, {Product: "B", Total: 20}, {Product: "A", Total: 10}},
			key:   ByProduct,
			want:  domain.GroupView{{Key: "B", Total: 20}, {Key: "A", Total: 15}},
		},
		{
			name:  "ties ordered by key",
			sales: []domain.Sale{{Product: "Zeta", Total: 10}, {Product: "Alfa", Total: 10}, {Product: "Meio", Total: 10}},
			key:   ByProduct,
			want:  domain.GroupView{{Key: "Alfa", Total: 10}, {Key: "Meio", Total: 10}, {Key: "Zeta", Total: 10}},
		},
		{
			name:  "blank keys use the label",
			sales: []domain.Sale{{Salesperson: "", Total: 4}, {Salesperson: "Ana", Total: 3}},
			key:   BySalesperson,
			want:  domain.GroupView{{Key: "Sem vendedor", Total: 4}, {Key: "Ana", Total: 3}},
		},
		{
			name: "empty input",
			key:  ByPaymentMethod,
			want: domain.GroupView{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, agg.GroupSum(tt.sales, tt.key))
		})
	}
}

func TestAggregator_WarnsWhenLabelIsASourceValue(t *testing.T) {
	var logs bytes.Buffer
	agg := NewAggregator(slog.New(slog.NewTextHandler(&logs, nil)), "")

	view := agg.GroupSum([]domain.Sale{
		{Salesperson: "", Total: 4},
		{Salesperson: DefaultMissingKeyLabel, Total: 6},
	}, BySalesperson)

	assert.Equal(t, domain.GroupView{{Key: DefaultMissingKeyLabel, Total: 10}}, view)
	assert.Contains(t, logs.String(), "missing-key label")

	logs.Reset()
	agg.GroupSum([]domain.Sale{{Salesperson: "", Total: 4}}, BySalesperson)
	assert.Empty(t, logs.String())
}

func TestAggregator_Aggregate(t *testing.T) {
	agg := NewAggregator(quietLogger(), "")
	sales := []domain.Sale{
		sale("A", "Ana", "Pix", 2, 10),
		sale("B", "Bia", "Cartão", 1, 5),
		sale("C", "", "Pix", 4, 2.5),
	}

	summary, err := agg.Aggregate(context.Background(), sales)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.RecordCount)
	assert.InDelta(t, 35.0, summary.GrandTotal, 1e-9)

	for name, view := range map[string]domain.GroupView{
		"salesperson": summary.BySalesperson,
		"product":     summary.ByProduct,
		"payment":     summary.ByPaymentMethod,
	} {
		assert.InDelta(t, summary.GrandTotal, view.Sum(), 1e-9, name)
		for i := 1; i < len(view); i++ {
			assert.GreaterOrEqual(t, view[i-1].Total, view[i].Total, name)
		}
	}

	assert.Equal(t, "A", summary.ByProduct[0].Key)
	assert.Equal(t, DefaultMissingKeyLabel, summary.BySalesperson[1].Key)
	assert.Equal(t, domain.CategoryTotal{Key: "Pix", Total: 30}, summary.ByPaymentMethod[0])
}

func TestAggregator_AggregateEmpty(t *testing.T) {
	summary, err := NewAggregator(quietLogger(), "").Aggregate(context.Background(), nil)
	require.NoError(t, err)

	assert.Zero(t, summary.RecordCount)
	assert.Zero(t, summary.GrandTotal)
	assert.Empty(t, summary.ByProduct)
	assert.Empty(t, summary.BySalesperson)
	assert.Empty(t, summary.ByPaymentMethod)
}

func TestAggregator_FullPrecision(t *testing.T) {
	summary, err := NewAggregator(quietLogger(), "").Aggregate(context.Background(),
		[]domain.Sale{sale("A", "Ana", "Pix", 3, 0.1), sale("A", "Ana", "Pix", 1, 1.0/3)})
	require.NoError(t, err)

	assert.InDelta(t, 0.3+1.0/3, summary.GrandTotal, 1e-12)
	assert.False(t, math.IsNaN(summary.GrandTotal))
}

func TestAggregator_RejectsOverflow(t *testing.T) {
	tests := []struct {
		name  string
		sales []domain.Sale
	}{
		{name: "line total", sales: []domain.Sale{sale("B", "Ana", "Pix", 1e200, 1e200)}},
		{name: "summed totals", sales: []domain.Sale{sale("A", "Ana", "Pix", 1e300, 1e8), sale("A", "Bia", "Pix", 1e300, 1e8)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAggregator(quietLogger(), "").Aggregate(context.Background(), tt.sales)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrTypeParsing), "got %v", err)
		})
	}
}

func TestAggregator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAggregator(nil, "").Aggregate(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
