package report

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/signintech/gopdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"salesreport/internal/config"
	"salesreport/internal/dataprocessing"
	"salesreport/internal/errors"
	"salesreport/internal/money"
	"salesreport/pkg/contracts/domain"
)

const (
	fontRegular = "goregular"
	fontBold    = "gobold"

	marginLeft   = 50.0
	listIndent   = 60.0
	secondColumn = 320.0
	// listCutoff is the lowest baseline a top-N entry may use
	listCutoff = 120.0

	chartBoxBottom = 80.0
)

// Fixed report text
const (
	DateLabel      = "Data de geração"
	SummaryHeading = "Resumo geral"
	HighlightsHead = "Destaques"
	ChartTitle     = "Gráfico - Total de Vendas por Produto"
	ChartFallback  = "Não foi possível carregar o gráfico para o PDF."
)

// Result describes a written report
type Result struct {
	Path          string
	Pages         int
	ChartEmbedded bool
	ChartFallback bool
	// ListedProducts and ListedSalespeople count the top-N entries that fit
	// above the list cutoff
	ListedProducts    int
	ListedSalespeople int
}

// Builder lays out the sales report as an A4 PDF
type Builder struct {
	logger   *slog.Logger
	cfg      config.ReportConfig
	currency money.Formatter

	// Now supplies the generation timestamp
	Now func() time.Time
}

// NewBuilder creates a report builder
func NewBuilder(logger *slog.Logger, cfg config.ReportConfig, currency money.Formatter) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		logger:   logger,
		cfg:      cfg,
		currency: currency,
		Now:      time.Now,
	}
}

// page wraps gopdf with bottom-left based coordinates
type page struct {
	pdf    *gopdf.GoPdf
	width  float64
	height float64
}

// text draws s with its baseline at y points above the bottom edge
func (p *page) text(font string, size float64, x, y float64, s string) error {
	if err := p.pdf.SetFont(font, "", size); err != nil {
		return err
	}
	// gopdf positions the top of the text line
	p.pdf.SetXY(x, p.height-y-size*0.8)
	return p.pdf.Cell(nil, s)
}

// Build writes the report to outPath. A second page with the chart is added
// only when a file exists at chartPath; a chart that cannot be decoded is
// replaced by a short notice.
func (b *Builder) Build(ctx context.Context, summary *domain.SalesSummary, chartPath, outPath string) (*Result, error) {
	if summary == nil {
		return nil, errors.NewAppValidationError("no aggregate to report")
	}

	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	if err := pdf.AddTTFFontData(fontRegular, goregular.TTF); err != nil {
		return nil, errors.NewRenderError("failed to load regular font", err)
	}
	if err := pdf.AddTTFFontData(fontBold, gobold.TTF); err != nil {
		return nil, errors.NewRenderError("failed to load bold font", err)
	}

	p := &page{pdf: pdf, width: gopdf.PageSizeA4.W, height: gopdf.PageSizeA4.H}
	result := &Result{Path: outPath}

	pdf.AddPage()
	result.Pages++
	if err := b.summaryPage(p, summary, result); err != nil {
		return nil, errors.NewRenderError("failed to lay out summary page", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if chartExists(chartPath) {
		pdf.AddPage()
		result.Pages++
		embedded, err := b.chartPage(ctx, p, chartPath)
		if err != nil {
			return nil, errors.NewRenderError("failed to lay out chart page", err)
		}
		result.ChartEmbedded = embedded
		result.ChartFallback = !embedded
	}

	if err := pdf.WritePdf(outPath); err != nil {
		return nil, errors.NewStorageError(fmt.Sprintf("failed to write report %s", outPath), err).WithContext("path", outPath)
	}

	b.logger.InfoContext(ctx, "Report written",
		slog.String("file", outPath),
		slog.Int("pages", result.Pages),
		slog.Bool("chart_embedded", result.ChartEmbedded))
	return result, nil
}

func (b *Builder) summaryPage(p *page, summary *domain.SalesSummary, result *Result) error {
	h := p.height
	cur := b.currency

	if err := p.text(fontBold, 20, marginLeft, h-60, b.cfg.Title); err != nil {
		return err
	}
	stamp := fmt.Sprintf("%s: %s", DateLabel, b.Now().Format("02/01/2006 15:04"))
	if err := p.text(fontRegular, 11, marginLeft, h-80, stamp); err != nil {
		return err
	}

	y := h - 120
	if err := p.text(fontBold, 14, marginLeft, y, SummaryHeading); err != nil {
		return err
	}
	y -= 20
	if err := p.text(fontRegular, 11, marginLeft, y, "Total geral de vendas: "+cur.Amount(summary.GrandTotal)); err != nil {
		return err
	}
	if avg, ok := dataprocessing.AverageSale(summary); ok {
		y -= 15
		if err := p.text(fontRegular, 11, marginLeft, y, "Ticket médio por venda: "+cur.Amount(avg)); err != nil {
			return err
		}
	}

	highlights := dataprocessing.BuildHighlights(summary)
	if highlights.Any() {
		y -= 25
		if err := p.text(fontBold, 14, marginLeft, y, HighlightsHead); err != nil {
			return err
		}
		y -= 5
		lines := b.highlightLines(highlights)
		for _, line := range lines {
			y -= 15
			if err := p.text(fontRegular, 11, marginLeft, y, line); err != nil {
				return err
			}
		}
	}

	y -= 30
	left := topList{
		title: fmt.Sprintf("Top %d produtos (por faturamento)", b.cfg.TopN),
		x:     marginLeft,
		itemX: listIndent,
		view:  dataprocessing.TopN(summary.ByProduct, b.cfg.TopN),
	}
	right := topList{
		title: fmt.Sprintf("Top %d vendedores", b.cfg.TopN),
		x:     secondColumn,
		itemX: secondColumn,
		view:  dataprocessing.TopN(summary.BySalesperson, b.cfg.TopN),
	}
	var err error
	if result.ListedProducts, err = b.drawTopList(p, left, y); err != nil {
		return err
	}
	if result.ListedSalespeople, err = b.drawTopList(p, right, y); err != nil {
		return err
	}
	return nil
}

func (b *Builder) highlightLines(h domain.Highlights) []string {
	cur := b.currency
	var lines []string
	if h.TopProduct != nil {
		lines = append(lines, fmt.Sprintf("Produto destaque: %s (%s, %s do total)",
			h.TopProduct.Key, cur.Amount(h.TopProduct.Total), cur.Percent(h.TopProduct.Ratio)))
	}
	if h.TopSalesperson != nil {
		lines = append(lines, fmt.Sprintf("Melhor vendedor: %s (%s, %s a média dos vendedores)",
			h.TopSalesperson.Key, cur.Amount(h.TopSalesperson.Total), cur.Multiple(h.TopSalesperson.Ratio)))
	}
	if h.TopPaymentMethod != nil {
		lines = append(lines, fmt.Sprintf("Forma de pagamento mais usada: %s (%s, %s do total)",
			h.TopPaymentMethod.Key, cur.Amount(h.TopPaymentMethod.Total), cur.Percent(h.TopPaymentMethod.Ratio)))
	}
	return lines
}

type topList struct {
	title string
	x     float64
	itemX float64
	view  domain.GroupView
}

const (
	listTitleGap = 15.0
	listLeading  = 12.0
)

// listRows is how many of n entries fit below a list title at baseline y
// without going under listCutoff
func listRows(y float64, n int) int {
	first := y - listTitleGap
	if y < listCutoff || first < listCutoff {
		return 0
	}
	fit := int((first-listCutoff)/listLeading) + 1
	if fit > n {
		return n
	}
	return fit
}

// drawTopList draws a titled list starting at baseline y and returns the
// number of entries drawn
func (b *Builder) drawTopList(p *page, list topList, y float64) (int, error) {
	if y < listCutoff {
		return 0, nil
	}
	if err := p.text(fontBold, 13, list.x, y, list.title); err != nil {
		return 0, err
	}
	rows := listRows(y, len(list.view))
	y -= listTitleGap
	for _, entry := range list.view[:rows] {
		line := fmt.Sprintf("- %s: %s", entry.Key, b.currency.Amount(entry.Total))
		if err := p.text(fontRegular, 10, list.itemX, y, line); err != nil {
			return 0, err
		}
		y -= listLeading
	}
	return rows, nil
}

// chartPage draws the chart title and image. It reports false when the image
// could not be embedded and the fallback notice was drawn instead.
func (b *Builder) chartPage(ctx context.Context, p *page, chartPath string) (bool, error) {
	if err := p.text(fontBold, 16, marginLeft, p.height-60, ChartTitle); err != nil {
		return false, err
	}

	img, err := imaging.Open(chartPath)
	if err == nil {
		err = p.drawFitted(img)
	}
	if err != nil {
		b.logger.WarnContext(ctx, "Chart could not be embedded in report",
			slog.String("chart", chartPath),
			slog.String("error", err.Error()))
		if err := p.text(fontRegular, 12, marginLeft, p.height-90, ChartFallback); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// drawFitted draws img inside the chart box, scaled to fit and centered
func (p *page) drawFitted(img image.Image) error {
	boxW := p.width - 2*marginLeft
	boxH := p.height - 150
	x, y, w, h := fitRect(img.Bounds().Dx(), img.Bounds().Dy(), boxW, boxH)

	boxTop := p.height - chartBoxBottom - boxH
	return p.pdf.ImageFrom(img, marginLeft+x, boxTop+y, &gopdf.Rect{W: w, H: h})
}

// fitRect scales an iw×ih image into a boxW×boxH box keeping its aspect
// ratio and returns the offsets and size of the centered result
func fitRect(iw, ih int, boxW, boxH float64) (x, y, w, h float64) {
	if iw <= 0 || ih <= 0 {
		return 0, 0, 0, 0
	}
	scale := boxW / float64(iw)
	if s := boxH / float64(ih); s < scale {
		scale = s
	}
	w = float64(iw) * scale
	h = float64(ih) * scale
	return (boxW - w) / 2, (boxH - h) / 2, w, h
}

func chartExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
