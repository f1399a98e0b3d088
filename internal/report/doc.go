// Package report builds the A4 PDF sales report.
//
// The first page carries the grand total, the average sale, the highlights
// and the top-N product and salesperson lists. When a chart file exists a
// second page shows it; an unreadable chart is replaced by a notice and the
// report still completes.
package report
