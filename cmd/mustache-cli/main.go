package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-mustache/pkg/config"
	"github.com/goliatone/go-mustache/pkg/partials"
	"github.com/goliatone/go-mustache/pkg/prompt"
	"github.com/goliatone/go-mustache/pkg/render/template/engine"
)

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, prompt.NewSurveyDriver()); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("mustache: %v", err)
	}
}

type cliOptions struct {
	template    string
	data        string
	partials    string
	config      string
	db          string
	output      string
	tokens      bool
	strict      bool
	interactive bool
}

func parseFlags(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("mustache", flag.ContinueOnError)
	fs.StringVar(&opts.template, "template", "", "template file (stdin if empty or -)")
	fs.StringVar(&opts.data, "data", "", "YAML or JSON data file")
	fs.StringVar(&opts.partials, "partials", "", "directory partials are loaded from")
	fs.StringVar(&opts.config, "config", "", "config file (YAML or JSON)")
	fs.StringVar(&opts.db, "db", "", "SQLite database holding a partials table")
	fs.StringVar(&opts.output, "output", "", "output file (stdout if empty)")
	fs.BoolVar(&opts.tokens, "tokens", false, "print the parsed tree instead of rendering")
	fs.BoolVar(&opts.strict, "strict", false, "fail on unresolved names and partials")
	fs.BoolVar(&opts.interactive, "interactive", false, "prompt for top-level values missing from the data")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.template == "" && fs.NArg() > 0 {
		opts.template = fs.Arg(0)
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, driver prompt.Driver) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if opts.config != "" {
		if cfg, err = config.Load(opts.config); err != nil {
			return err
		}
	}
	if opts.partials != "" {
		cfg = cfg.Merge(config.Config{TemplatePaths: []string{opts.partials}})
	}
	cfg.Strict = cfg.Strict || opts.strict

	engineOpts := []engine.Option{engine.WithConfig(cfg)}
	if opts.db != "" {
		db, err := initDB(opts.db)
		if err != nil {
			return fmt.Errorf("open partials db: %w", err)
		}
		defer db.Close()
		engineOpts = append(engineOpts, engine.WithPartials(partials.NewSQL(db)))
	}

	eng, err := engine.New(engineOpts...)
	if err != nil {
		return err
	}

	source, err := readSource(opts.template, stdin)
	if err != nil {
		return err
	}
	tmpl, err := eng.Compile(source)
	if err != nil {
		return err
	}

	if opts.tokens {
		_, err := fmt.Fprintln(stdout, tmpl.String())
		return err
	}

	data, err := loadData(opts.data)
	if err != nil {
		return err
	}
	if opts.interactive {
		if data, err = prompt.Fill(ctx, driver, tmpl, data); err != nil {
			return err
		}
	}

	out, err := eng.RenderParsed(tmpl, data)
	if err != nil {
		return err
	}

	if opts.output != "" {
		if err := atomic.WriteFile(opts.output, strings.NewReader(out)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		log.Printf("Output written to %s", opts.output)
		return nil
	}
	_, err = io.WriteString(stdout, out)
	return err
}

func readSource(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read template from stdin: %w", err)
		}
		return string(raw), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}
	return string(raw), nil
}

// loadData reads a YAML document; JSON parses as YAML too.
func loadData(path string) (map[string]any, error) {
	data := make(map[string]any)
	if strings.TrimSpace(path) == "" {
		return data, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse data %s: %w", path, err)
	}
	return data, nil
}
