package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved locations of every file a run reads or writes
type Paths struct {
	InputFile    string
	OutputDir    string
	WorkbookFile string
	ChartFile    string
	ReportFile   string
	// CSVDir is empty when CSV copies of the views are disabled
	CSVDir string
}

// Paths resolves the configured names. Output names that are not absolute are
// joined to Output.Dir; the input path is used as given.
func (c *Config) Paths() *Paths {
	outDir := c.Output.Dir
	if outDir == "" {
		outDir = "."
	}

	paths := &Paths{
		InputFile:    c.Input.Path,
		OutputDir:    outDir,
		WorkbookFile: resolve(outDir, c.Output.Workbook),
		ChartFile:    resolve(outDir, c.Output.Chart),
		ReportFile:   resolve(outDir, c.Output.Report),
	}
	if c.Output.CSVDir != "" {
		paths.CSVDir = resolve(outDir, c.Output.CSVDir)
	}
	return paths
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// EnsureDirectories creates the output directory and the parent directory of
// every output file.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.OutputDir,
		filepath.Dir(p.WorkbookFile),
		filepath.Dir(p.ChartFile),
		filepath.Dir(p.ReportFile),
	}
	if p.CSVDir != "" {
		directories = append(directories, p.CSVDir)
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved paths at debug level
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("Path resolution summary",
		slog.String("input", p.InputFile),
		slog.Group("outputs",
			slog.String("dir", p.OutputDir),
			slog.String("workbook", p.WorkbookFile),
			slog.String("chart", p.ChartFile),
			slog.String("report", p.ReportFile),
			slog.String("csv_dir", p.CSVDir),
		))
}
