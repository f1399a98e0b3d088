package domain

// Sale is one valid sales line. A row whose product, quantity or unit price is
// missing never becomes a Sale.
type Sale struct {
	// Row is the 1-based data row in the source file, header excluded
	Row int `json:"row"`

	Product       string `json:"product" csv:"Produto" validate:"required"`
	Salesperson   string `json:"salesperson" csv:"Vendedor"`
	PaymentMethod string `json:"payment_method" csv:"Forma de Pagamento"`

	Quantity  float64 `json:"quantity" csv:"Quantidade"`
	UnitPrice float64 `json:"unit_price" csv:"Valor Unitário"`

	// Total is Quantity × UnitPrice, set by the aggregator
	Total float64 `json:"total" csv:"Total"`

	// Fields holds every source column's raw value keyed by header name
	Fields map[string]string `json:"fields,omitempty"`
}

// SalesDataset is the loader's output: the surviving sales in source order
// plus what is needed to reproduce the detailed sheet.
type SalesDataset struct {
	Source  string   `json:"source"`
	Columns []string `json:"columns"`
	Sales   []Sale   `json:"sales"`
	Dropped int      `json:"dropped"`
}

// Len returns the number of surviving sales
func (d *SalesDataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Sales)
}
