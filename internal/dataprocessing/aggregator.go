package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"salesreport/internal/errors"
	"salesreport/pkg/contracts/domain"
)

// DefaultMissingKeyLabel groups sales whose category field is blank
const DefaultMissingKeyLabel = "Não informado"

// KeyFunc selects the grouping key of a sale
type KeyFunc func(domain.Sale) string

// BySalesperson groups by salesperson
func BySalesperson(s domain.Sale) string { return s.Salesperson }

// ByProduct groups by product
func ByProduct(s domain.Sale) string { return s.Product }

// ByPaymentMethod groups by payment method
func ByPaymentMethod(s domain.Sale) string { return s.PaymentMethod }

// Progress is advanced once per sale while totals are computed
type Progress interface {
	Increment()
}

// Aggregator derives line totals and the grouped views
type Aggregator struct {
	logger          *slog.Logger
	missingKeyLabel string
	progress        Progress
}

// NewAggregator creates an aggregator. An empty label falls back to
// DefaultMissingKeyLabel.
func NewAggregator(logger *slog.Logger, missingKeyLabel string) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(missingKeyLabel) == "" {
		missingKeyLabel = DefaultMissingKeyLabel
	}
	return &Aggregator{logger: logger, missingKeyLabel: missingKeyLabel}
}

// WithProgress attaches a progress sink
func (a *Aggregator) WithProgress(p Progress) *Aggregator {
	a.progress = p
	return a
}

// ComputeTotals returns a copy of sales with Total = Quantity × UnitPrice
func (a *Aggregator) ComputeTotals(sales []domain.Sale) []domain.Sale {
	out := make([]domain.Sale, len(sales))
	for i, sale := range sales {
		sale.Total = sale.Quantity * sale.UnitPrice
		out[i] = sale
		if a.progress != nil {
			a.progress.Increment()
		}
	}
	return out
}

// GroupSum sums Total per key. The view is ordered by sum descending, then by
// key ascending. Blank keys are reported under the missing-key label.
func (a *Aggregator) GroupSum(sales []domain.Sale, key KeyFunc) domain.GroupView {
	sums := make(map[string]float64)
	labelInData := false
	for _, sale := range sales {
		k := key(sale)
		switch k {
		case "":
			k = a.missingKeyLabel
		case a.missingKeyLabel:
			labelInData = true
		}
		sums[k] += sale.Total
	}
	if labelInData {
		a.logger.Warn("Source value equals the missing-key label; both are summed together",
			slog.String("label", a.missingKeyLabel))
	}

	view := make(domain.GroupView, 0, len(sums))
	for k, total := range sums {
		view = append(view, domain.CategoryTotal{Key: k, Total: total})
	}

	sort.Slice(view, func(i, j int) bool {
		if view[i].Total != view[j].Total {
			return view[i].Total > view[j].Total
		}
		return view[i].Key < view[j].Key
	})

	return view
}

// GrandTotal sums Total over every sale; 0 for an empty set
func GrandTotal(sales []domain.Sale) float64 {
	var total float64
	for _, sale := range sales {
		total += sale.Total
	}
	return total
}

// Aggregate computes line totals, the grand total and the three views
func (a *Aggregator) Aggregate(ctx context.Context, sales []domain.Sale) (*domain.SalesSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	withTotals := a.ComputeTotals(sales)
	for _, sale := range withTotals {
		if math.IsInf(sale.Total, 0) {
			return nil, errors.NewParsingError(
				fmt.Sprintf("row %d: total of %s overflows", sale.Row, sale.Product), nil,
			).WithContext("row", sale.Row)
		}
	}

	summary := &domain.SalesSummary{
		Sales:           withTotals,
		RecordCount:     len(withTotals),
		GrandTotal:      GrandTotal(withTotals),
		BySalesperson:   a.GroupSum(withTotals, BySalesperson),
		ByProduct:       a.GroupSum(withTotals, ByProduct),
		ByPaymentMethod: a.GroupSum(withTotals, ByPaymentMethod),
	}

	if math.IsInf(summary.GrandTotal, 0) {
		return nil, errors.NewParsingError("grand total overflows", nil)
	}
	for _, view := range []domain.GroupView{summary.BySalesperson, summary.ByProduct, summary.ByPaymentMethod} {
		for _, entry := range view {
			if math.IsInf(entry.Total, 0) {
				return nil, errors.NewParsingError(fmt.Sprintf("total for %s overflows", entry.Key), nil)
			}
		}
	}

	a.logger.InfoContext(ctx, "Sales aggregated",
		slog.Int("records", summary.RecordCount),
		slog.Float64("grand_total", summary.GrandTotal),
		slog.Int("salespeople", summary.BySalesperson.Len()),
		slog.Int("products", summary.ByProduct.Len()),
		slog.Int("payment_methods", summary.ByPaymentMethod.Len()))

	return summary, nil
}
