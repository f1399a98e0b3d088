package dataprocessing

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salesreport/internal/config"
	"salesreport/internal/errors"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newTestLoader() *Loader {
	return NewLoader(quietLogger(), LoaderConfigFrom(config.Default()))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const sampleCSV = `Produto,Quantidade,Valor Unitário,Vendedor,Forma de Pagamento
Camiseta,2,10.00,Ana,Pix
Boné,1,5,Bruno,Cartão
`

func TestLoader_LoadCSV(t *testing.T) {
	dataset, err := newTestLoader().Load(context.Background(), writeFile(t, "vendas.csv", sampleCSV))
	require.NoError(t, err)

	require.Equal(t, 2, dataset.Len())
	assert.Equal(t, 0, dataset.Dropped)
	assert.Equal(t, []string{"Produto", "Quantidade", "Valor Unitário", "Vendedor", "Forma de Pagamento"}, dataset.Columns)

	first := dataset.Sales[0]
	assert.Equal(t, 1, first.Row)
	assert.Equal(t, "Camiseta", first.Product)
	assert.Equal(t, "Ana", first.Salesperson)
	assert.Equal(t, "Pix", first.PaymentMethod)
	assert.InDelta(t, 2.0, first.Quantity, 1e-9)
	assert.InDelta(t, 10.0, first.UnitPrice, 1e-9)
	assert.Equal(t, "10.00", first.Fields["Valor Unitário"])
	assert.Zero(t, first.Total)
}

func TestLoader_DropsIncompleteRows(t *testing.T) {
	content := `Produto,Quantidade,Valor Unitário,Vendedor,Forma de Pagamento
Camiseta,2,10,Ana,Pix
,1,5,Bruno,Pix
Boné,,5,Bruno,Pix
Meia,3,NaN,Carla,Dinheiro
Calça,1,N/A,Carla,Dinheiro

Tênis,1,100,,
`
	dataset, err := newTestLoader().Load(context.Background(), writeFile(t, "vendas.csv", content))
	require.NoError(t, err)

	require.Equal(t, 2, dataset.Len())
	assert.Equal(t, 4, dataset.Dropped)
	assert.Equal(t, "Tênis", dataset.Sales[1].Product)
	assert.Empty(t, dataset.Sales[1].Salesperson)
	assert.Empty(t, dataset.Sales[1].PaymentMethod)
	assert.Equal(t, 6, dataset.Sales[1].Row, "blank lines are skipped by the reader")
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantType errors.ErrorType
	}{
		{
			name:     "invalid quantity",
			content:  "Produto,Quantidade,Valor Unitário,Vendedor,Forma de Pagamento\nCamiseta,dois,10,Ana,Pix\n",
			wantType: errors.ErrTypeParsing,
		},
		{
			name:     "comma decimal unit price",
			content:  "Produto,Quantidade,Valor Unitário,Vendedor,Forma de Pagamento\nCamiseta,2,\"10,50\",Ana,Pix\n",
			wantType: errors.ErrTypeParsing,
		},
		{
			name:     "missing column",
			content:  "Produto,Quantidade,Vendedor,Forma de Pagamento\nCamiseta,2,Ana,Pix\n",
			wantType: errors.ErrTypeParsing,
		},
		{
			name:     "infinite quantity",
			content:  "Produto,Quantidade,Valor Unitário,Vendedor,Forma de Pagamento\nCamiseta,inf,10,Ana,Pix\n",
			wantType: errors.ErrTypeParsing,
		},
		{
			name:     "infinity unit price",
			content:  "Produto,Quantidade,Valor Unitário,Vendedor,Forma de Pagamento\nCamiseta,1,-Infinity,Ana,Pix\n",
			wantType: errors.ErrTypeParsing,
		},
		{
			name:     "overflowing literal",
			content:  "Produto,Quantidade,Valor Unitário,Vendedor,Forma de Pagamento\nCamiseta,1e400,1,Ana,Pix\n",
			wantType: errors.ErrTypeParsing,
		},
		{
			name:     "empty file",
			content:  "",
			wantType: errors.ErrTypeParsing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestLoader().Load(context.Background(), writeFile(t, "vendas.csv", tt.content))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.wantType), "got %v", err)
		})
	}
}

func TestLoader_MissingColumnNamesAllAbsent(t *testing.T) {
	path := writeFile(t, "vendas.csv", "Produto,Quantidade\nA,1\n")

	_, err := newTestLoader().Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Forma de Pagamento, Valor Unitário, Vendedor")
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := newTestLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
}

func TestLoader_HeaderMatching(t *testing.T) {
	// BOM, decomposed "á", different case and padding
	content := "\ufeff produto ,QUANTIDADE,Valor Unita\u0301rio,vendedor,Forma de pagamento,Observação\n" +
		"Camiseta,2,10,Ana,Pix,primeira compra\n"

	dataset, err := newTestLoader().Load(context.Background(), writeFile(t, "vendas.csv", content))
	require.NoError(t, err)

	require.Equal(t, 1, dataset.Len())
	assert.Equal(t, "Valor Unitário", dataset.Columns[2])
	assert.Equal(t, "primeira compra", dataset.Sales[0].Fields["Observação"])
}

func TestLoader_NormalizesCategories(t *testing.T) {
	content := "Produto,Quantidade,Valor Unitário,Vendedor,Forma de Pagamento\n" +
		"Caf\u00e9,1,5,Ana,Pix\n" +
		" Cafe\u0301 ,1,5,Ana,Pix\n"

	dataset, err := newTestLoader().Load(context.Background(), writeFile(t, "vendas.csv", content))
	require.NoError(t, err)

	require.Equal(t, 2, dataset.Len())
	assert.Equal(t, dataset.Sales[0].Product, dataset.Sales[1].Product)
}

func TestLoader_SemicolonDelimiter(t *testing.T) {
	cfg := config.Default()
	cfg.Input.Delimiter = ";"
	loader := NewLoader(quietLogger(), LoaderConfigFrom(cfg))

	content := "Produto;Quantidade;Valor Unitário;Vendedor;Forma de Pagamento\nCamiseta;2;10.5;Ana;Pix\n"
	dataset, err := loader.Load(context.Background(), writeFile(t, "vendas.csv", content))
	require.NoError(t, err)

	require.Equal(t, 1, dataset.Len())
	assert.InDelta(t, 10.5, dataset.Sales[0].UnitPrice, 1e-9)
}

func TestLoader_DuplicateHeaders(t *testing.T) {
	content := "Produto,Obs,Quantidade,Valor Unitário,Vendedor,Forma de Pagamento,Obs,Obs\n" +
		"A,first,1,5,Ana,Pix,second,third\n"

	dataset, err := newTestLoader().Load(context.Background(), writeFile(t, "vendas.csv", content))
	require.NoError(t, err)

	assert.Equal(t, []string{"Produto", "Obs", "Quantidade", "Valor Unitário", "Vendedor", "Forma de Pagamento", "Obs.1", "Obs.2"}, dataset.Columns)
	require.Equal(t, 1, dataset.Len())
	fields := dataset.Sales[0].Fields
	assert.Equal(t, "first", fields["Obs"])
	assert.Equal(t, "second", fields["Obs.1"])
	assert.Equal(t, "third", fields["Obs.2"])
}

func TestDedupeHeader(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "unique", in: []string{"a", "b"}, want: []string{"a", "b"}},
		{name: "repeated", in: []string{"a", "a", "a"}, want: []string{"a", "a.1", "a.2"}},
		{name: "suffix already taken", in: []string{"a", "a.1", "a"}, want: []string{"a", "a.1", "a.2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dedupeHeader(tt.in))
		})
	}
}

func TestLoader_Windows1252Input(t *testing.T) {
	// "Unitário" and "Cartão" encoded as Windows-1252
	content := []byte("Produto,Quantidade,Valor Unit\xe1rio,Vendedor,Forma de Pagamento\nBon\xe9,1,5,Ana,Cart\xe3o\n")
	path := filepath.Join(t.TempDir(), "latin1.csv")
	require.NoError(t, os.WriteFile(path, content, 0644))

	dataset, err := newTestLoader().Load(context.Background(), path)
	require.NoError(t, err)

	require.Equal(t, 1, dataset.Len())
	assert.Equal(t, "Boné", dataset.Sales[0].Product)
	assert.Equal(t, "Cartão", dataset.Sales[0].PaymentMethod)
}

func TestLoader_ShortRowsArePadded(t *testing.T) {
	content := "Produto,Quantidade,Valor Unitário,Vendedor,Forma de Pagamento\nCamiseta,2,10\n"

	dataset, err := newTestLoader().Load(context.Background(), writeFile(t, "vendas.csv", content))
	require.NoError(t, err)

	require.Equal(t, 1, dataset.Len())
	assert.Empty(t, dataset.Sales[0].Salesperson)
}

func TestLoader_LoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Vendas"
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Produto", "Quantidade", "Valor Unitário", "Vendedor", "Forma de Pagamento"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Camiseta", 2, 10.5, "Ana", "Pix"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"Boné", nil, 5, "Bruno", "Pix"}))

	path := filepath.Join(t.TempDir(), "vendas.xlsx")
	require.NoError(t, f.SaveAs(path))

	cfg := config.Default()
	cfg.Input.Sheet = sheet
	dataset, err := NewLoader(quietLogger(), LoaderConfigFrom(cfg)).Load(context.Background(), path)
	require.NoError(t, err)

	require.Equal(t, 1, dataset.Len())
	assert.Equal(t, 1, dataset.Dropped)
	assert.InDelta(t, 10.5, dataset.Sales[0].UnitPrice, 1e-9)
	assert.Equal(t, path, dataset.Source)
}

func TestLoader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestLoader().Load(ctx, writeFile(t, "vendas.csv", sampleCSV))
	assert.ErrorIs(t, err, context.Canceled)
}
