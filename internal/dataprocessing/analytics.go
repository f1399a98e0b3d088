package dataprocessing

import "salesreport/pkg/contracts/domain"

// AverageSale is the grand total divided by the record count. ok is false
// when there are no records.
func AverageSale(summary *domain.SalesSummary) (avg float64, ok bool) {
	if summary == nil || summary.RecordCount == 0 {
		return 0, false
	}
	return summary.GrandTotal / float64(summary.RecordCount), true
}

// SharePercent is part as a percentage of total, 0 when total is 0
func SharePercent(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}

// Multiple is value divided by mean, 0 when mean is 0
func Multiple(value, mean float64) float64 {
	if mean == 0 {
		return 0
	}
	return value / mean
}

// TopN returns the first n entries of view
func TopN(view domain.GroupView, n int) domain.GroupView {
	return view.Top(n)
}

// BuildHighlights picks the leading product and payment method with their
// share of the grand total, and the leading salesperson with their multiple of
// the mean per-salesperson total.
func BuildHighlights(summary *domain.SalesSummary) domain.Highlights {
	var h domain.Highlights
	if summary == nil {
		return h
	}

	if top, ok := summary.ByProduct.First(); ok {
		h.TopProduct = &domain.Highlight{
			Key:   top.Key,
			Total: top.Total,
			Ratio: SharePercent(top.Total, summary.GrandTotal),
		}
	}
	if top, ok := summary.BySalesperson.First(); ok {
		h.TopSalesperson = &domain.Highlight{
			Key:   top.Key,
			Total: top.Total,
			Ratio: Multiple(top.Total, summary.BySalesperson.Mean()),
		}
	}
	if top, ok := summary.ByPaymentMethod.First(); ok {
		h.TopPaymentMethod = &domain.Highlight{
			Key:   top.Key,
			Total: top.Total,
			Ratio: SharePercent(top.Total, summary.GrandTotal),
		}
	}

	return h
}
