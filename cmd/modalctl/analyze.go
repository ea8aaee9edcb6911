package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rotor-modal/client/internal/analysis"
	"github.com/rotor-modal/client/internal/history"
	"github.com/rotor-modal/client/internal/intake"
	"github.com/rotor-modal/client/internal/results"
	"github.com/rotor-modal/client/internal/storage"
)

// cliOwner owns the single controller a modalctl run drives.
const cliOwner = "modalctl"

// Analyze-specific flag values.
var (
	analyzeDat     string
	analyzeInp     string
	analyzeBackend string
	analyzePath    string
	analyzeTimeout time.Duration
	analyzeRules   string
	analyzeHistory string
	analyzeJSON    bool
)

// analyzeCmd submits one file pair and prints the report.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Submit a .dat/.inp pair and print the classified report",
	Long: `Submit a displacement (.dat) and position (.inp) file pair to the modal
analysis backend and print the report. Lower and upper frequency
differences below the threshold are highlighted.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeDat, "dat", "", "displacement data file (.dat)")
	analyzeCmd.Flags().StringVar(&analyzeInp, "inp", "", "rotor position file (.inp)")
	analyzeCmd.Flags().StringVar(&analyzeBackend, "backend", defaultBackend(), "analysis backend base URL")
	analyzeCmd.Flags().StringVar(&analyzePath, "path", analysis.DefaultPath, "analysis route on the backend")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 5*time.Minute, "analysis call timeout")
	analyzeCmd.Flags().StringVar(&analyzeRules, "rules", "", "YAML classification rules file")
	analyzeCmd.Flags().StringVar(&analyzeHistory, "history", "", "DuckDB file to record the run in")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the report as JSON")
}

func defaultBackend() string {
	if v := os.Getenv("ANALYSIS_BACKEND_URL"); v != "" {
		return v
	}
	return "http://localhost:8000"
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	if analyzeDat == "" || analyzeInp == "" {
		return exitError(ExitInvalidArgs, "modalctl: %s (--dat and --inp)", intake.NoticeBothFilesRequired)
	}

	rules, err := results.LoadRules(analyzeRules)
	if err != nil {
		return exitError(ExitInvalidArgs, "modalctl: %v", err)
	}
	interp := results.NewInterpreter(rules)

	// Package progress lines go to stdout; keep it for the report.
	restore := redirectDiagnostics(quiet)
	defer restore()

	workDir, err := os.MkdirTemp("", "modalctl-*")
	if err != nil {
		return exitError(ExitInvalidArgs, "modalctl: create work dir: %v", err)
	}
	defer os.RemoveAll(workDir)

	files, err := storage.NewLocalStore(workDir)
	if err != nil {
		return exitError(ExitInvalidArgs, "modalctl: %v", err)
	}
	handoff := results.NewStore()
	client := analysis.NewClient(analyzeBackend, analyzePath, analyzeTimeout)

	var completed intake.Completion
	ctrl := intake.NewController(cliOwner, files, client, handoff,
		intake.WithTimeout(analyzeTimeout),
		intake.WithCompletionHook(func(c intake.Completion) { completed = c }),
	)
	defer ctrl.Close()

	for _, sel := range []struct {
		role intake.Role
		path string
	}{
		{intake.RoleDisplacement, analyzeDat},
		{intake.RolePosition, analyzeInp},
	} {
		if err := selectFile(files, ctrl, sel.role, sel.path); err != nil {
			return exitError(ExitInvalidArgs, "modalctl: %v", err)
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	slog.Info("submitting", "dat", filepath.Base(analyzeDat), "inp", filepath.Base(analyzeInp), "endpoint", client.Endpoint)
	if err := ctrl.Submit(ctx); err != nil {
		return exitError(ExitAnalysis, "modalctl: %v", err)
	}
	snap, err := ctrl.Wait(ctx)
	if err != nil {
		return exitError(ExitAnalysis, "modalctl: %v", err)
	}
	if snap.State != intake.StateDone {
		slog.Debug("submission failed", "kind", snap.ErrorKind)
		return exitError(ExitAnalysis, "modalctl: %s: %v", snap.Notice, ctrl.LastError())
	}

	result, ok := handoff.Get(cliOwner, snap.ResultID)
	if !ok {
		return exitError(ExitAnalysis, "modalctl: result %s is no longer available", snap.ResultID)
	}
	slog.Info("analysis complete", "rows", len(result.Results), "duration", completed.Duration)

	if analyzeHistory != "" {
		recordHistory(ctx, analyzeHistory, history.NewRun(completed.Displacement, completed.Position, result, interp, completed.Duration))
	}

	view := results.BuildView(snap.ResultID, result, interp)
	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			return exitError(ExitOutput, "modalctl: write report: %v", err)
		}
		return nil
	}
	if err := renderReport(out, view); err != nil {
		return exitError(ExitOutput, "modalctl: %v", err)
	}
	return nil
}

// selectFile stores path and places it in the slot for role.
func selectFile(files storage.Store, ctrl *intake.Controller, role intake.Role, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s file: %w", role, err)
	}
	defer f.Close()

	info, err := files.Save(filepath.Base(path), f)
	if err != nil {
		return fmt.Errorf("store %s file: %w", role, err)
	}
	if err := ctrl.Select(role, info); err != nil {
		_ = files.Delete(info.ID)
		return err
	}
	slog.Debug("selected", "role", role, "name", info.Name, "size", info.Size)
	return nil
}

// recordHistory appends run to the DuckDB file at path. Failures are
// reported but never fail the command.
func recordHistory(ctx context.Context, path string, run history.Run) {
	store, err := history.Open(path)
	if err != nil {
		slog.Warn("history unavailable", "path", path, "error", err)
		return
	}
	defer store.Close()
	if err := store.Record(ctx, run); err != nil {
		slog.Warn("recording run failed", "error", err)
	}
}

// redirectDiagnostics points os.Stdout at stderr, or at the null device
// in quiet mode, until the returned func is called.
func redirectDiagnostics(quiet bool) func() {
	orig := os.Stdout
	target := os.Stderr
	var devNull *os.File
	if quiet {
		if f, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0); err == nil {
			devNull = f
			target = f
		}
	}
	os.Stdout = target
	return func() {
		os.Stdout = orig
		if devNull != nil {
			devNull.Close()
		}
	}
}
