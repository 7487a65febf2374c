// Command resumeextract converts one résumé file to text and prints the
// fields the upload endpoint would pre-fill. No database or broker is needed.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"interview-assistant/internal/config"
	"interview-assistant/internal/extractor"
	"interview-assistant/internal/logger"
	"interview-assistant/internal/parser"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

type options struct {
	file        string
	configPath  string
	mode        string
	sentinel    string
	// sentinelSet distinguishes an explicit empty sentinel from no flag
	sentinelSet bool
	format      string
	verbose     bool
}

func main() {
	var opts options
	pflag.StringVarP(&opts.file, "file", "f", "", "Résumé file (.pdf, .doc, .docx, .txt); - reads plain text from stdin")
	pflag.StringVarP(&opts.configPath, "config", "c", "", "Config file for parser settings (default: built-in)")
	pflag.StringVar(&opts.mode, "mode", "", "Experience rendering: bucketed or raw (default from config)")
	pflag.StringVar(&opts.sentinel, "sentinel", "", "Placeholder for unmatched name, email and phone")
	pflag.StringVar(&opts.format, "format", "json", "Output format: json or text")
	pflag.BoolVarP(&opts.verbose, "verbose", "v", false, "Log conversion details to stderr")
	pflag.Parse()
	opts.sentinelSet = pflag.CommandLine.Changed("sentinel")

	if opts.file == "" {
		fmt.Fprintln(os.Stderr, "usage: resumeextract -f <file> [--mode raw|bucketed] [--sentinel S] [--format json|text]")
		pflag.PrintDefaults()
		os.Exit(2)
	}

	// stdout carries the result
	level := zerolog.ErrorLevel
	if opts.verbose {
		level = zerolog.DebugLevel
	}
	logger.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).Level(level).With().Timestamp().Logger()

	if err := run(context.Background(), opts, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "resumeextract: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdin io.Reader, out io.Writer) error {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.LoadConfigFromFileOnly(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if opts.mode != "" {
		cfg.Extraction.ExperienceMode = opts.mode
	}
	if opts.sentinelSet {
		cfg.Extraction.NotFoundSentinel = &opts.sentinel
	}

	ext, err := extractor.FromConfig(cfg.Extraction)
	if err != nil {
		return err
	}
	text, err := readText(ctx, cfg.Parser, opts.file, stdin)
	if err != nil {
		return err
	}
	if limit := cfg.Extraction.MaxInputChars; limit > 0 {
		if r := []rune(text); len(r) > limit {
			text = string(r[:limit])
		}
	}
	return render(out, opts.format, ext.Extract(text))
}

func readText(ctx context.Context, cfg config.ParserConfig, file string, stdin io.Reader) (string, error) {
	if file == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	doc := parser.Document{Filename: file, MimeType: parser.MimeTypeForFile(file), Data: data}
	if doc.MimeType == parser.MimeText {
		return string(data), nil
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conv, err := parser.NewConverter(ctx, cfg)
	if err != nil {
		return "", err
	}
	result, err := conv.Convert(ctx, doc)
	if err != nil {
		return "", err
	}
	logger.Debug().Str("backend", result.Backend).Int("pages", result.PageCount).Str("content_type", result.ContentType).Msg("document converted")
	return result.Text, nil
}

func render(out io.Writer, format string, f extractor.Fields) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(f)
	case "text":
		_, err := fmt.Fprintf(out, "Name:       %s\nEmail:      %s\nPhone:      %s\nPosition:   %s\nExperience: %s\nSkills:     %s\nSummary:    %s\n",
			f.Name, f.Email, f.Phone, f.Position, f.Experience, strings.Join(f.Skills, ", "), f.Summary)
		return err
	default:
		return fmt.Errorf("unknown format %q (want json or text)", format)
	}
}
