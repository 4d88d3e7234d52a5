// Command pkgbuild-dump parses one or more PKGBUILD recipes and prints a
// summary of each, or, with --srcinfo, the canonical SRCINFO projection of
// each — mirroring the original pkgbuild-rs crate's examples/dump_all.rs
// and examples/printsrcinfo.rs.
package main

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arch-tools/pkgbuild/pkg/logger"
	"github.com/arch-tools/pkgbuild/pkg/parser"
	"github.com/arch-tools/pkgbuild/pkg/pkgbuild"
	"github.com/arch-tools/pkgbuild/pkg/shell"
	"github.com/arch-tools/pkgbuild/pkg/srcinfo"
)

var (
	interpreter string
	libraryPath string
	configPath  string
	srcinfoMode bool
	probe       bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "pkgbuild-dump [paths...]",
	Short: "Parse PKGBUILD recipes and print their structured contents",
	Long: "pkgbuild-dump parses one or more PKGBUILD recipes through the same\n" +
		"harness/child-I/O/stream-parser/lifter pipeline the library exposes, then\n" +
		"prints either a summary of each record or, with --srcinfo, its canonical\n" +
		"SRCINFO projection.",
	Args: func(cmd *cobra.Command, args []string) error {
		if probe {
			return nil
		}

		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: run,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&interpreter, "interpreter", "/bin/bash",
		"shell interpreter used to run the generated harness")
	rootCmd.PersistentFlags().StringVar(&libraryPath, "library", "",
		"makepkg library path (defaults to $LIBRARY or /usr/share/makepkg)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"makepkg config path (defaults to $MAKEPKG_CONF or /etc/makepkg.conf)")
	rootCmd.PersistentFlags().BoolVar(&srcinfoMode, "srcinfo", false,
		"print the canonical SRCINFO projection instead of a summary")
	rootCmd.PersistentFlags().BoolVar(&probe, "probe", false,
		"run a trivial script through the in-process shell interpreter and exit, "+
			"without parsing any recipe (the --interpreter binary is not run)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runProbe() error {
	logger.Info("probing interpreter", "interpreter", interpreter)

	if err := shell.RunScript(": probe"); err != nil {
		return fmt.Errorf("pkgbuild-dump: probe failed: %w", err)
	}

	pterm.Println("interpreter ok")

	return nil
}

func buildOptions() parser.ParserOptions {
	opts := parser.DefaultParserOptions()
	opts.Interpreter = interpreter

	if libraryPath != "" {
		opts.LibraryPath = libraryPath
	}

	if configPath != "" {
		opts.ConfigPath = configPath
	}

	return opts
}

func run(_ *cobra.Command, args []string) error {
	logger.SetVerbose(verbose)

	if probe {
		return runProbe()
	}

	p, err := parser.New(buildOptions())
	if err != nil {
		return fmt.Errorf("pkgbuild-dump: %w", err)
	}
	defer func() {
		if closeErr := p.Close(); closeErr != nil {
			logger.Warn("failed to clean up harness script", "error", closeErr)
		}
	}()

	records, err := p.ParseMulti(args)
	if err != nil {
		return fmt.Errorf("pkgbuild-dump: %w", err)
	}

	for i, rec := range records {
		if srcinfoMode {
			if err := printSrcinfo(rec); err != nil {
				return fmt.Errorf("pkgbuild-dump: %w", err)
			}

			continue
		}

		printSummary(args[i], rec)
	}

	return nil
}

func printSrcinfo(rec *pkgbuild.Pkgbuild) error {
	text, err := srcinfo.Render(rec)
	if err != nil {
		return err
	}

	pterm.Println(text)

	return nil
}

func printSummary(path string, rec *pkgbuild.Pkgbuild) {
	pterm.DefaultSection.Println(rec.Pkgbase)
	pterm.Printf("source:  %s\n", path)
	pterm.Printf("version: %s\n", srcinfoVersion(rec))
	pterm.Printf("pkgver():   %t\n", rec.PkgverFunc)
	pterm.Printf("depends:    %d\n", len(rec.Depends(nil)))
	pterm.Printf("sources:    %d\n", len(rec.Sources(nil)))
	pterm.Printf("packages:   %d\n", len(rec.Pkgs))

	for _, pkg := range rec.Pkgs {
		pterm.Printf("  - %s\n", pkg.Pkgname)
	}
}

func srcinfoVersion(rec *pkgbuild.Pkgbuild) string {
	v := rec.Version

	version := v.Pkgver
	if v.Epoch != "" {
		version = v.Epoch + ":" + version
	}

	if v.Pkgrel != "" {
		version += "-" + v.Pkgrel
	}

	return version
}
