package report

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesreport/internal/config"
	"salesreport/internal/errors"
	"salesreport/internal/money"
	"salesreport/pkg/contracts/domain"
)

func newTestBuilder() *Builder {
	b := NewBuilder(nil, config.Default().Report, money.Default())
	b.Now = func() time.Time { return time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC) }
	return b
}

func sampleSummary() *domain.SalesSummary {
	return &domain.SalesSummary{
		RecordCount:     2,
		GrandTotal:      25,
		BySalesperson:   domain.GroupView{{Key: "Ana", Total: 20}, {Key: "Bruno", Total: 5}},
		ByProduct:       domain.GroupView{{Key: "A", Total: 20}, {Key: "B", Total: 5}},
		ByPaymentMethod: domain.GroupView{{Key: "Pix", Total: 25}},
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 135, G: 206, B: 235, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestBuilder_Build(t *testing.T) {
	tests := []struct {
		name          string
		summary       *domain.SalesSummary
		chart         func(t *testing.T, path string)
		pages         int
		chartEmbedded bool
		chartFallback bool
	}{
		{
			name:    "no chart gives one page",
			summary: sampleSummary(),
			pages:   1,
		},
		{
			name:    "valid chart is embedded on second page",
			summary: sampleSummary(),
			chart: func(t *testing.T, path string) {
				writePNG(t, path, 160, 100)
			},
			pages:         2,
			chartEmbedded: true,
		},
		{
			name:    "corrupt chart falls back to notice",
			summary: sampleSummary(),
			chart: func(t *testing.T, path string) {
				require.NoError(t, os.WriteFile(path, []byte("not an image"), 0644))
			},
			pages:         2,
			chartFallback: true,
		},
		{
			name:    "empty summary still builds",
			summary: &domain.SalesSummary{},
			pages:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			chartPath := filepath.Join(dir, "grafico.png")
			if tt.chart != nil {
				tt.chart(t, chartPath)
			}
			outPath := filepath.Join(dir, "relatorio.pdf")

			result, err := newTestBuilder().Build(context.Background(), tt.summary, chartPath, outPath)
			require.NoError(t, err)

			assert.Equal(t, outPath, result.Path)
			assert.Equal(t, tt.pages, result.Pages)
			assert.Equal(t, tt.chartEmbedded, result.ChartEmbedded)
			assert.Equal(t, tt.chartFallback, result.ChartFallback)
			assert.Equal(t, len(tt.summary.ByProduct), result.ListedProducts)
			assert.Equal(t, len(tt.summary.BySalesperson), result.ListedSalespeople)

			content, err := os.ReadFile(outPath)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))
		})
	}
}

func TestBuilder_LongTopListStopsAtCutoff(t *testing.T) {
	cfg := config.Default().Report
	cfg.TopN = 50
	b := NewBuilder(nil, cfg, money.Default())

	summary := sampleSummary()
	for i := 0; i < 60; i++ {
		summary.ByProduct = append(summary.ByProduct, domain.CategoryTotal{Key: fmt.Sprintf("P%02d", i), Total: 1})
	}

	result, err := b.Build(context.Background(), summary, "", filepath.Join(t.TempDir(), "relatorio.pdf"))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Pages)
	assert.Greater(t, result.ListedProducts, 0)
	assert.Less(t, result.ListedProducts, cfg.TopN, "entries below the cutoff must not be drawn")
	assert.Equal(t, 2, result.ListedSalespeople)
}

func TestListRows(t *testing.T) {
	tests := []struct {
		name string
		y    float64
		n    int
		want int
	}{
		{name: "all fit", y: 600, n: 5, want: 5},
		{name: "first entry exactly on cutoff", y: listCutoff + listTitleGap, n: 5, want: 1},
		{name: "limited by space", y: listCutoff + listTitleGap + 3*listLeading, n: 10, want: 4},
		{name: "title fits but no entry", y: listCutoff + 1, n: 5, want: 0},
		{name: "title below cutoff", y: listCutoff - 1, n: 5, want: 0},
		{name: "empty view", y: 600, n: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, listRows(tt.y, tt.n))
		})
	}
}

func TestBuilder_OverwritesExistingReport(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "relatorio.pdf")
	require.NoError(t, os.WriteFile(outPath, []byte("old"), 0644))

	_, err := newTestBuilder().Build(context.Background(), sampleSummary(), "", outPath)
	require.NoError(t, err)

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))
}

func TestBuilder_Errors(t *testing.T) {
	t.Run("nil summary", func(t *testing.T) {
		_, err := newTestBuilder().Build(context.Background(), nil, "", filepath.Join(t.TempDir(), "r.pdf"))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
	})

	t.Run("unwritable output", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "missing", "r.pdf")
		_, err := newTestBuilder().Build(context.Background(), sampleSummary(), "", out)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeStorage))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newTestBuilder().Build(ctx, sampleSummary(), "", filepath.Join(t.TempDir(), "r.pdf"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBuilder_HighlightLines(t *testing.T) {
	b := newTestBuilder()
	lines := b.highlightLines(domain.Highlights{
		TopProduct:       &domain.Highlight{Key: "A", Total: 20, Ratio: 80},
		TopSalesperson:   &domain.Highlight{Key: "Ana", Total: 20, Ratio: 1.6},
		TopPaymentMethod: &domain.Highlight{Key: "Pix", Total: 25, Ratio: 100},
	})

	assert.Equal(t, []string{
		"Produto destaque: A (R$ 20,00, 80,0% do total)",
		"Melhor vendedor: Ana (R$ 20,00, 1,6x a média dos vendedores)",
		"Forma de pagamento mais usada: Pix (R$ 25,00, 100,0% do total)",
	}, lines)

	assert.Empty(t, b.highlightLines(domain.Highlights{}))
}

func TestFitRect(t *testing.T) {
	tests := []struct {
		name       string
		iw, ih     int
		boxW, boxH float64
		x, y, w, h float64
	}{
		{name: "wide image fits width", iw: 200, ih: 100, boxW: 100, boxH: 100, x: 0, y: 25, w: 100, h: 50},
		{name: "tall image fits height", iw: 100, ih: 200, boxW: 100, boxH: 100, x: 25, y: 0, w: 50, h: 100},
		{name: "same aspect fills box", iw: 50, ih: 25, boxW: 200, boxH: 100, x: 0, y: 0, w: 200, h: 100},
		{name: "empty image", iw: 0, ih: 10, boxW: 100, boxH: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, w, h := fitRect(tt.iw, tt.ih, tt.boxW, tt.boxH)
			assert.InDelta(t, tt.x, x, 1e-9)
			assert.InDelta(t, tt.y, y, 1e-9)
			assert.InDelta(t, tt.w, w, 1e-9)
			assert.InDelta(t, tt.h, h, 1e-9)
		})
	}
}

func TestChartExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "c.png")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	assert.True(t, chartExists(file))
	assert.False(t, chartExists(dir))
	assert.False(t, chartExists(filepath.Join(dir, "none.png")))
	assert.False(t, chartExists(""))
}
