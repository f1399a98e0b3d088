package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesreport/internal/infrastructure"
)

const salesCSV = "Produto,Quantidade,Valor Unitário,Vendedor,Forma de Pagamento\n" +
	"A,2,10,Ana,Pix\n" +
	"B,1,5,Bruno,Cartão\n"

// chdirTemp runs the test from an empty directory so no config file or .env
// from the repository is picked up
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func runCLI(t *testing.T, args ...string) (int, string) {
	t.Helper()
	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	var stdout bytes.Buffer
	code := run(append([]string{"-log-level", "error"}, args...), &stdout)
	return code, stdout.String()
}

func TestRunSuccess(t *testing.T) {
	dir := chdirTemp(t)
	input := filepath.Join(dir, "vendas_loja.csv")
	require.NoError(t, os.WriteFile(input, []byte(salesCSV), 0644))
	outDir := filepath.Join(dir, "out")
	metrics := filepath.Join(dir, "metrics.prom")

	code, stdout := runCLI(t, "-input", input, "-out-dir", outDir, "-metrics-file", metrics)
	require.Equal(t, 0, code)

	for _, name := range []string{"analise_vendas.xlsx", "grafico_vendas_produto.png", "relatorio_vendas.pdf"} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}
	assert.Contains(t, stdout, "===== RESUMO GERAL =====")
	assert.Contains(t, stdout, "Total geral de vendas: R$ 25,00")

	content, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(content), "salesreport_last_success_timestamp_seconds")
	assert.Contains(t, string(content), "salesreport_records_total")
}

func TestRunDefaultInputFromWorkingDirectory(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendas_loja.csv"), []byte(salesCSV), 0644))

	code, _ := runCLI(t)
	require.Equal(t, 0, code)
	assert.FileExists(t, filepath.Join(dir, "relatorio_vendas.pdf"))
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name string
		args func(dir string) []string
	}{
		{
			name: "missing input file",
			args: func(dir string) []string { return []string{"-input", filepath.Join(dir, "none.csv")} },
		},
		{
			name: "invalid log level",
			args: func(dir string) []string { return []string{"-log-level", "loud"} },
		},
		{
			name: "unknown flag",
			args: func(dir string) []string { return []string{"-bogus"} },
		},
		{
			name: "output directory below a file",
			args: func(dir string) []string {
				blocker := filepath.Join(dir, "blocker")
				_ = os.WriteFile(blocker, nil, 0644)
				return []string{"-out-dir", filepath.Join(blocker, "out")}
			},
		},
		{
			name: "missing config file",
			args: func(dir string) []string { return []string{"-config", filepath.Join(dir, "none.yaml")} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := chdirTemp(t)
			infrastructure.ResetLoggerForTesting()
			t.Cleanup(infrastructure.ResetLoggerForTesting)

			var stdout bytes.Buffer
			code := run(tt.args(dir), &stdout)
			assert.Equal(t, 1, code)
		})
	}
}

func TestRunReadOnlyOutputDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can write to read-only directories")
	}
	dir := chdirTemp(t)
	input := filepath.Join(dir, "vendas_loja.csv")
	require.NoError(t, os.WriteFile(input, []byte(salesCSV), 0644))
	outDir := filepath.Join(dir, "locked")
	require.NoError(t, os.Mkdir(outDir, 0555))
	t.Cleanup(func() { _ = os.Chmod(outDir, 0755) })

	code, stdout := runCLI(t, "-input", input, "-out-dir", outDir)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.NoFileExists(t, filepath.Join(outDir, "relatorio_vendas.pdf"))
}

func TestRunHelp(t *testing.T) {
	chdirTemp(t)
	code, stdout := runCLI(t, "-h")
	assert.Equal(t, 0, code)
	assert.False(t, strings.Contains(stdout, "RESUMO"))
}

func TestLoadConfigAppliesFlags(t *testing.T) {
	chdirTemp(t)
	cfg, err := loadConfig(&cliFlags{
		input:       "in.xlsx",
		outDir:      "out",
		logLevel:    "debug",
		metricsFile: "m.prom",
	})
	require.NoError(t, err)

	assert.Equal(t, "in.xlsx", cfg.Input.Path)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "m.prom", cfg.Telemetry.MetricsFile)
}

func TestParseFlagsRejectsPositionalArguments(t *testing.T) {
	_, err := parseFlags([]string{"extra"})
	assert.Error(t, err)
}

func TestRunVersion(t *testing.T) {
	var stdout bytes.Buffer
	code := run([]string{"-version"}, &stdout)
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(stdout.String(), "salesreport v"))
}
