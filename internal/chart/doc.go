// Package chart renders the per-product totals as a PNG bar chart using
// gonum/plot. Styling is fixed; the caller only chooses the output path.
package chart
