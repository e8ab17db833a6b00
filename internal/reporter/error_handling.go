package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	pipelineerrors "golang-invoice-service/pkg/errors"
	"golang-invoice-service/pkg/logger"
)

// SafeReportGenerator wraps ReportGenerator with logging and fallbacks: a
// failing JSON or CSV report is retried as a console report, and a report
// that cannot be written to its file is written to a backup file instead.
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a new safe report generator
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, pipelineerrors.ConfigurationError(
			pipelineerrors.CodeInvalidConfig,
			"report_config",
			config,
			err,
		).WithSuggestion("Check the output format and CSV delimiter settings")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// ReportFunc writes one report with the given generator
type ReportFunc func(rg *ReportGenerator, writer io.Writer) error

// GenerateSafely runs report against writer with fallbacks
func (srg *SafeReportGenerator) GenerateSafely(name string, writer io.Writer, report ReportFunc) error {
	if writer == nil {
		return pipelineerrors.InternalError(pipelineerrors.CodeUnexpectedError, "report_"+name,
			fmt.Errorf("writer cannot be nil"))
	}

	srg.logger.WithFields(logger.Fields{
		"report": name,
		"format": srg.config.Format,
		"output": getWriterDescription(writer),
	}).Debug("Starting report generation")

	err := report(srg.ReportGenerator, writer)
	if err == nil {
		return nil
	}
	srg.logger.WithError(err).Warn("Primary report generation failed, attempting fallback")

	if srg.shouldAttemptOutputFallback(err, writer) {
		return srg.generateWithOutputFallback(name, writer, report, err)
	}
	if srg.config.Format != FormatConsole {
		return srg.generateWithFormatFallback(name, writer, report, err)
	}
	return srg.wrapGenerationError(name, err)
}

// generateWithFormatFallback retries the report in console format
func (srg *SafeReportGenerator) generateWithFormatFallback(name string, writer io.Writer, report ReportFunc, originalErr error) error {
	fallbackConfig := *srg.config
	fallbackConfig.Format = FormatConsole

	srg.logger.WithField("fallback_format", FormatConsole).Info("Attempting format fallback")

	fallbackGenerator, err := NewReportGenerator(&fallbackConfig)
	if err != nil {
		return srg.wrapGenerationError(name, originalErr)
	}

	fmt.Fprintf(writer, "NOTE: Report generated in fallback format due to error with requested format\n")
	fmt.Fprintf(writer, "Original error: %v\n\n", originalErr)

	if err := report(fallbackGenerator, writer); err != nil {
		return pipelineerrors.InternalError(
			pipelineerrors.CodeUnexpectedError,
			"report_fallback",
			fmt.Errorf("both primary and fallback generation failed: primary=%v, fallback=%v", originalErr, err),
		)
	}

	srg.logger.Info("Report generated successfully using format fallback")
	return nil
}

// shouldAttemptOutputFallback reports whether a file writer failed for a file-system reason
func (srg *SafeReportGenerator) shouldAttemptOutputFallback(err error, writer io.Writer) bool {
	if file, ok := writer.(*os.File); ok && file.Name() != "" && file != os.Stdout && file != os.Stderr {
		return isFileError(err)
	}
	return false
}

// generateWithOutputFallback writes the report to a backup file next to the original
func (srg *SafeReportGenerator) generateWithOutputFallback(name string, writer io.Writer, report ReportFunc, originalErr error) error {
	file, ok := writer.(*os.File)
	if !ok {
		return srg.wrapGenerationError(name, originalErr)
	}

	originalPath := file.Name()
	backupPath := generateBackupPath(originalPath)

	srg.logger.WithFields(logger.Fields{
		"original_file": originalPath,
		"backup_file":   backupPath,
	}).Info("Attempting output fallback")

	backupFile, err := os.Create(backupPath)
	if err != nil {
		return srg.wrapGenerationError(name, originalErr)
	}
	defer backupFile.Close()

	if err := report(srg.ReportGenerator, backupFile); err != nil {
		return pipelineerrors.InternalError(
			pipelineerrors.CodeUnexpectedError,
			"report_output_fallback",
			fmt.Errorf("both primary and backup output failed: primary=%v, backup=%v", originalErr, err),
		)
	}

	srg.logger.WithField("backup_file", backupPath).Warn("Report written to backup file")
	return nil
}

// wrapGenerationError wraps generation errors with context
func (srg *SafeReportGenerator) wrapGenerationError(name string, err error) error {
	return pipelineerrors.WrapIfNeeded(err, pipelineerrors.CategoryInternal, pipelineerrors.CodeUnexpectedError,
		fmt.Sprintf("failed to generate %s report", name)).
		WithSuggestion("Check the output destination and report format settings")
}

func isFileError(err error) bool {
	if os.IsPermission(err) || os.IsNotExist(err) || os.IsExist(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no space left") ||
		strings.Contains(msg, "disk full") ||
		strings.Contains(msg, "bad file descriptor") ||
		strings.Contains(msg, "file already closed")
}

func generateBackupPath(originalPath string) string {
	dir := filepath.Dir(originalPath)
	base := filepath.Base(originalPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]

	return filepath.Join(dir, fmt.Sprintf("%s_backup%s", name, ext))
}

func getWriterDescription(writer io.Writer) string {
	switch w := writer.(type) {
	case *os.File:
		if w.Name() != "" {
			return fmt.Sprintf("file:%s", w.Name())
		}
		return "file:unnamed"
	default:
		return fmt.Sprintf("writer:%T", writer)
	}
}
