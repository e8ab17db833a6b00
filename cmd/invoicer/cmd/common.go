package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang-invoice-service/cmd/invoicer/config"
	"golang-invoice-service/internal/pipeline"
	"golang-invoice-service/internal/reporter"
	"golang-invoice-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var validOutputFormats = map[string]bool{"console": true, "json": true, "csv": true}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func validateOutputFormat(format string) error {
	if !validOutputFormats[strings.ToLower(format)] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", format)
	}
	return nil
}

func validateOutputFile(outputFile string) error {
	if outputFile == "" {
		return nil
	}
	dir := filepath.Dir(outputFile)
	if dir != "." {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", dir)
		}
	}
	return nil
}

// newService builds a pipeline service from the global flags
func newService() (*pipeline.Service, error) {
	registry, err := config.CreateRegistry(viper.GetString("merchants"))
	if err != nil {
		return nil, err
	}

	patterns, err := config.CreatePatterns(viper.GetString("patterns"))
	if err != nil {
		return nil, err
	}

	overrides, err := config.ParsePrefixOverrides(viper.GetStringSlice("prefix-override"))
	if err != nil {
		return nil, err
	}

	pipelineConfig, err := config.CreatePipelineConfig(registry, patterns, viper.GetString("tenant"), overrides)
	if err != nil {
		return nil, err
	}

	return pipeline.NewService(pipelineConfig)
}

// openOutput returns the command's stdout or a created file. The returned
// func closes the file when one was opened.
func openOutput(cmd *cobra.Command, outputFile string) (io.Writer, func(), error) {
	if outputFile == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}

	output, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return output, func() { output.Close() }, nil
}

// writeReport writes one report through the safe generator
func writeReport(cmd *cobra.Command, name, outputFormat, outputFile string, report reporter.ReportFunc) error {
	reportConfig, err := config.CreateReportConfig(outputFormat, viper.GetBool("verbose"))
	if err != nil {
		return err
	}

	generator, err := reporter.NewSafeReportGenerator(reportConfig, logger.WithComponent("cli"))
	if err != nil {
		return err
	}

	output, closeOutput, err := openOutput(cmd, outputFile)
	if err != nil {
		return err
	}
	defer closeOutput()

	return generator.GenerateSafely(name, output, report)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
