package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"flint/internal/diag"
	"flint/internal/diagfmt"
	"flint/internal/driver"
	"flint/internal/observ"
	"flint/internal/rule"
	"flint/internal/rules"
	"flint/internal/ui"
	"flint/internal/version"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] <directory>",
	Short: "Analyze every tree bundle under a directory",
	Long:  `Run the active rule set over every *.tree bundle under the directory and report the findings`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("format", "pretty", "output format (pretty|json|sarif)")
	analyzeCmd.Flags().Int("jobs", 0, "max parallel workers (0=config, then one per CPU)")
	analyzeCmd.Flags().Bool("fast", false, "fast budget: skip high-cost rules")
	analyzeCmd.Flags().StringSlice("category", nil, "force file categories instead of resolving per file")
	analyzeCmd.Flags().Bool("interactive", false, "live progress and findings browser (implies pretty)")
	analyzeCmd.Flags().Bool("no-cache", false, "disable the persistent findings cache")
	analyzeCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	analyzeCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	analyzeCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	root := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	fast, err := cmd.Flags().GetBool("fast")
	if err != nil {
		return err
	}
	forcedCats, err := cmd.Flags().GetStringSlice("category")
	if err != nil {
		return err
	}
	interactive, err := cmd.Flags().GetBool("interactive")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return err
	}
	suggest, err := cmd.Flags().GetBool("suggest")
	if err != nil {
		return err
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}

	st, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("analyze: %s is not a directory", root)
	}

	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return err
	}

	opts := driver.Options{
		Config:         cfg,
		Registry:       rules.NewRegistry(),
		Jobs:           jobs,
		MaxDiagnostics: maxDiagnostics,
		Fast:           fast,
	}
	for _, c := range forcedCats {
		opts.Categories = append(opts.Categories, rule.Category(c))
	}
	if !noCache {
		if cache, cacheErr := driver.OpenFindingsCache("flint"); cacheErr == nil {
			opts.Cache = cache
		}
	}
	if showTimings {
		opts.Timer = observ.NewTimer()
	}

	var res *driver.Result
	if interactive && isTerminal(os.Stdout) {
		res, err = analyzeInteractive(cmd, root, opts)
	} else {
		res, err = driver.AnalyzeDir(cmd.Context(), root, opts)
	}
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	color, err := useColor(cmd)
	if err != nil {
		return err
	}
	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}

	switch format {
	case "pretty":
		diagfmt.Pretty(os.Stdout, res.Findings, res.FileSet, diagfmt.PrettyOpts{
			Color:     color,
			Context:   2,
			PathMode:  pathMode,
			ShowNotes: withNotes,
			ShowFixes: suggest,
		})
		if !quiet {
			fmt.Fprintf(os.Stdout, "%d file(s), %d finding(s)\n", len(res.Files), len(res.Findings))
		}
	case "json":
		err = diagfmt.JSON(os.Stdout, res.Findings, res.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     withNotes,
			IncludeFixes:     suggest,
		})
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}
	case "sarif":
		err = diagfmt.Sarif(os.Stdout, res.Findings, res.FileSet, diagfmt.SarifRunMeta{
			ToolName:       "flint",
			ToolVersion:    version.Plain,
			InvocationArgs: os.Args,
		})
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if showTimings {
		fmt.Fprint(os.Stderr, opts.Timer.Summary())
	}

	for _, d := range res.Findings {
		if d.Severity >= diag.SevError {
			return silentExit(cmd)
		}
	}
	return nil
}

// analyzeInteractive drives the run behind a live progress view, then opens
// the findings browser.
func analyzeInteractive(cmd *cobra.Command, root string, opts driver.Options) (*driver.Result, error) {
	events := make(chan driver.Event, 64)
	opts.Events = func(ev driver.Event) { events <- ev }

	type outcome struct {
		res *driver.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := driver.AnalyzeDir(cmd.Context(), root, opts)
		close(events)
		done <- outcome{res, err}
	}()

	prog := tea.NewProgram(ui.NewProgressModel("analyzing "+root, nil, events))
	if _, err := prog.Run(); err != nil {
		return nil, err
	}
	// The view may have been quit early; keep draining so the driver's
	// event emits never block.
	go func() {
		for range events {
		}
	}()
	out := <-done
	if out.err != nil {
		return nil, out.err
	}

	if len(out.res.Findings) > 0 {
		browser := tea.NewProgram(ui.NewFindingsBrowser(out.res.Findings, out.res.FileSet))
		if _, err := browser.Run(); err != nil {
			return nil, err
		}
	}
	return out.res, nil
}
