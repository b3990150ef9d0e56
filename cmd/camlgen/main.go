package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/camlgate/camlgate/gen"
)

// config mirrors the camlgen.toml schema. Flags override file values.
type config struct {
	Package string `toml:"package"`
	Output  string `toml:"output"`
}

func main() {
	var (
		configFile = flag.String("config", "", "Path to a camlgen.toml config file")
		output     = flag.String("o", "", "Output file (default: stdout)")
		pkgName    = flag.String("pkg", "", "Output package name (default: declaration file base name)")
		verbose    = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: camlgen [-config camlgen.toml] [-o out.go] [-pkg name] decl.ml")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		gen.SetLogger(logger)
	}

	if err := run(flag.Arg(0), *configFile, *pkgName, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(declFile, configFile, pkgName, output string) error {
	var cfg config
	if configFile != "" {
		if _, err := toml.DecodeFile(configFile, &cfg); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}
	if pkgName != "" {
		cfg.Package = pkgName
	}
	if output != "" {
		cfg.Output = output
	}
	if cfg.Package == "" {
		base := strings.TrimSuffix(filepath.Base(declFile), filepath.Ext(declFile))
		cfg.Package = strings.Map(packageRune, strings.ToLower(base))
	}

	source, err := os.ReadFile(declFile)
	if err != nil {
		return fmt.Errorf("read declarations: %w", err)
	}

	decls, err := gen.Parse(string(source))
	if err != nil {
		return fmt.Errorf("parse %s: %w", declFile, err)
	}
	src, err := gen.Generate(decls, gen.Options{Package: cfg.Package})
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	if cfg.Output == "" {
		_, err := os.Stdout.Write(src)
		return err
	}
	if err := os.WriteFile(cfg.Output, src, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", cfg.Output, err)
	}
	fmt.Printf("Generated %s: %d declarations, %d bytes\n", cfg.Output, len(decls), len(src))
	return nil
}

// packageRune keeps only the runes valid in a Go package name.
func packageRune(r rune) rune {
	if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
		return r
	}
	return -1
}
