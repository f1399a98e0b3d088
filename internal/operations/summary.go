package operations

import (
	"fmt"
	"io"
	"text/tabwriter"

	"salesreport/internal/money"
	"salesreport/pkg/contracts/domain"
)

// SummaryHeader opens the console summary
const SummaryHeader = "===== RESUMO GERAL ====="

// WriteSummary prints the grand total and the three views, one aligned
// "key  amount" line per entry
func WriteSummary(w io.Writer, summary *domain.SalesSummary, currency money.Formatter) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "\n%s\n", SummaryHeader)
	fmt.Fprintf(tw, "Total geral de vendas: %s\n", currency.Amount(summary.GrandTotal))

	sections := []struct {
		title string
		view  domain.GroupView
	}{
		{"Por vendedor:", summary.BySalesperson},
		{"Por produto:", summary.ByProduct},
		{"Por pagamento:", summary.ByPaymentMethod},
	}
	for _, s := range sections {
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(tw, "\n%s\n", s.title)
		for _, entry := range s.view {
			fmt.Fprintf(tw, "%s\t%s\n", entry.Key, currency.Amount(entry.Total))
		}
	}
	return tw.Flush()
}
