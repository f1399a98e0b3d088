package domain

// CategoryTotal is one entry of a grouped view
type CategoryTotal struct {
	Key   string  `json:"key"`
	Total float64 `json:"total"`
}

// GroupView is an ordered list of category totals, highest total first.
// Equal totals are ordered by key.
type GroupView []CategoryTotal

// Len returns the number of distinct categories
func (v GroupView) Len() int { return len(v) }

// Top returns the first n entries, or the whole view when it is shorter.
func (v GroupView) Top(n int) GroupView {
	if n < 0 {
		n = 0
	}
	if n > len(v) {
		n = len(v)
	}
	return v[:n]
}

// First returns the leading entry and false when the view is empty.
func (v GroupView) First() (CategoryTotal, bool) {
	if len(v) == 0 {
		return CategoryTotal{}, false
	}
	return v[0], true
}

// Sum adds every category total
func (v GroupView) Sum() float64 {
	var sum float64
	for _, entry := range v {
		sum += entry.Total
	}
	return sum
}

// Mean is the average total per category, 0 for an empty view.
func (v GroupView) Mean() float64 {
	if len(v) == 0 {
		return 0
	}
	return v.Sum() / float64(len(v))
}

// SalesSummary is the aggregate produced once per run and shared read-only by
// every output stage.
type SalesSummary struct {
	Sales           []Sale    `json:"sales"`
	RecordCount     int       `json:"record_count"`
	GrandTotal      float64   `json:"grand_total"`
	BySalesperson   GroupView `json:"by_salesperson"`
	ByProduct       GroupView `json:"by_product"`
	ByPaymentMethod GroupView `json:"by_payment_method"`
}

// Highlight is the leading entry of a view with a derived ratio: a share of the
// grand total in percent, or a multiple of the per-category mean.
type Highlight struct {
	Key   string  `json:"key"`
	Total float64 `json:"total"`
	Ratio float64 `json:"ratio"`
}

// Highlights collects the leaders shown in the report. A nil field means the
// corresponding view was empty.
type Highlights struct {
	TopProduct       *Highlight `json:"top_product,omitempty"`
	TopSalesperson   *Highlight `json:"top_salesperson,omitempty"`
	TopPaymentMethod *Highlight `json:"top_payment_method,omitempty"`
}

// Any reports whether at least one highlight is present
func (h Highlights) Any() bool {
	return h.TopProduct != nil || h.TopSalesperson != nil || h.TopPaymentMethod != nil
}
