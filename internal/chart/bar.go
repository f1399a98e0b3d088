package chart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	apperrors "salesreport/internal/errors"
	"salesreport/pkg/contracts/domain"
)

// ErrNoData is returned by Render when the view has no entries
var ErrNoData = errors.New("no data to chart")

// Fixed chart styling
const (
	Title  = "Total de Vendas por Produto"
	XLabel = "Produto"
	YLabel = "Valor Total (R$)"

	Width  = 8 * vg.Inch
	Height = 5 * vg.Inch
)

// SkyBlue is the bar fill color
var SkyBlue = color.RGBA{R: 135, G: 206, B: 235, A: 255}

// BarChart renders a grouped view as a PNG bar chart
type BarChart struct {
	logger *slog.Logger
}

// NewBarChart creates a bar chart renderer
func NewBarChart(logger *slog.Logger) *BarChart {
	if logger == nil {
		logger = slog.Default()
	}
	return &BarChart{logger: logger}
}

// Render draws one bar per view entry, in view order, and writes the PNG to
// path. An empty view removes any chart left at path and returns ErrNoData.
func (b *BarChart) Render(ctx context.Context, view domain.GroupView, path string) error {
	if view.Len() == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return apperrors.NewStorageError("failed to remove stale chart", err).WithContext("path", path)
		}
		return ErrNoData
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := b.build(view)
	if err != nil {
		return apperrors.NewRenderError("failed to build chart", err)
	}

	w, err := p.WriterTo(Width, Height, "png")
	if err != nil {
		return apperrors.NewRenderError("failed to render chart", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return apperrors.NewRenderError("failed to encode chart", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write chart %s", path), err).WithContext("path", path)
	}

	b.logger.InfoContext(ctx, "Chart written",
		slog.String("file", path),
		slog.Int("bars", view.Len()))
	return nil
}

func (b *BarChart) build(view domain.GroupView) (*plot.Plot, error) {
	values := make(plotter.Values, view.Len())
	names := make([]string, view.Len())
	for i, entry := range view {
		values[i] = entry.Total
		names[i] = entry.Key
	}

	bars, err := plotter.NewBarChart(values, barWidth(view.Len()))
	if err != nil {
		return nil, err
	}
	bars.Color = SkyBlue
	bars.LineStyle.Width = vg.Length(0)

	p := plot.New()
	p.Title.Text = Title
	p.X.Label.Text = XLabel
	p.Y.Label.Text = YLabel
	p.Y.Min = 0
	p.Add(bars)
	p.NominalX(names...)

	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Add(plotter.NewGrid())

	return p, nil
}

// barWidth narrows bars as the product count grows
func barWidth(n int) vg.Length {
	w := 360 / float64(n)
	switch {
	case w > 40:
		w = 40
	case w < 2:
		w = 2
	}
	return vg.Points(w)
}
