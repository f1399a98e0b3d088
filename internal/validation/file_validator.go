package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "salesreport/internal/errors"
)

// SupportedInputExtensions lists the table formats the loader can read
var SupportedInputExtensions = []string{".csv", ".txt", ".xlsx"}

// FileValidator checks input and output locations before a run touches them
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputFile checks that path is a readable regular file with one of
// the allowed extensions (SupportedInputExtensions when none are given).
func (v *FileValidator) ValidateInputFile(path string, allowed ...string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	if len(allowed) == 0 {
		allowed = SupportedInputExtensions
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range allowed {
		if ext == candidate {
			return nil
		}
	}

	v.logger.Error("Unsupported input format",
		slog.String("file", path),
		slog.String("extension", ext))
	return apperrors.NewAppValidationError(
		fmt.Sprintf("file %s has unsupported extension %q (want one of %s)", path, ext, strings.Join(allowed, ", ")),
	).WithContext("path", path)
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist", slog.String("file", path))
		return apperrors.NewNotFoundError(fmt.Sprintf("file %s", path)).WithContext("path", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewAppError(apperrors.ErrTypeValidation, fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file", slog.String("path", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewAppError(apperrors.ErrTypeValidation, fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}
