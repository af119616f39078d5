package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/oarkflow/fastache"
	"golang.org/x/term"
)

func main() {
	templatePath := flag.String("template", "", "template file to render")
	paramsPath := flag.String("params", "", "JSON or YAML parameter file")
	output := flag.String("out", "", "output file (stdout if empty)")
	configPath := flag.String("config", "", "YAML config file")
	prompt := flag.Bool("prompt", false, "ask for top-level names missing from the parameters")
	dump := flag.Bool("dump", false, "print the parameter tree to stderr before rendering")
	logLevel := flag.String("log-level", "", "debug, info, warn or error (overrides config)")
	flag.Parse()

	if *templatePath == "" {
		log.Fatalf("missing -template")
	}

	cfg := fastache.ConfigFromEnvironment()
	if *configPath != "" {
		var err error
		if cfg, err = fastache.LoadConfig(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	fastache.SetLogger(fastache.NewLogger(os.Stderr, cfg.LogLevel))

	params := fastache.Root()
	if *paramsPath != "" {
		var err error
		if params, err = fastache.LoadParams(*paramsPath); err != nil {
			log.Fatalf("Failed to load params: %v", err)
		}
	}

	if *prompt {
		tmpl, err := fastache.CompileFile(*templatePath)
		if err != nil {
			log.Fatalf("Failed to compile template: %v", err)
		}
		if err := askMissing(tmpl.Names(), params); err != nil {
			log.Fatalf("Prompt failed: %v", err)
		}
	}
	if err := params.Validate(); err != nil {
		log.Fatalf("Invalid params: %v", err)
	}
	if *dump {
		if err := params.Dump(os.Stderr); err != nil {
			log.Fatalf("Failed to dump params: %v", err)
		}
	}

	job := fastache.Job{
		Source: make([]byte, cfg.SourceSize),
		Output: make([]byte, cfg.OutputSize),
		Alloc:  fastache.NewSlab(cfg.MaxNodes),
		Stack:  fastache.NewScopeStack(cfg.ScopeDepth),
		Params: params,
	}
	var rendered []byte
	err := fastache.RenderFile(*templatePath, job, func(out []byte) {
		rendered = append(rendered, out...)
	})
	if err != nil {
		log.Fatalf("Failed to render: %v", err)
	}

	if *output != "" {
		if err := os.WriteFile(*output, rendered, 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		return
	}
	os.Stdout.Write(rendered)
	if term.IsTerminal(int(os.Stdout.Fd())) && !bytes.HasSuffix(rendered, []byte("\n")) {
		fmt.Println()
	}
}

// askMissing prompts for every top-level name the template uses that the
// parameters do not define, and adds the answers as strings.
func askMissing(names []string, params *fastache.Param) error {
	seen := make(map[string]bool)
	for _, name := range names {
		head, _, _ := strings.Cut(name, ".")
		if head == "" || seen[head] {
			continue
		}
		seen[head] = true
		if params.Member([]byte(head)) != nil {
			continue
		}
		var answer string
		q := &survey.Input{
			Message: head + ":",
		}
		if err := survey.AskOne(q, &answer); err != nil {
			return fmt.Errorf("asking for %q: %w", head, err)
		}
		if err := params.Append(fastache.String(head, answer)); err != nil {
			return err
		}
	}
	return nil
}
