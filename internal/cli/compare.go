package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nightisyang/frankentui/internal/report"
	"github.com/nightisyang/frankentui/internal/rules"
	"github.com/nightisyang/frankentui/internal/signature"
	"github.com/nightisyang/frankentui/internal/suite"
	"github.com/nightisyang/frankentui/internal/trace"
)

// CompareOptions holds flags for the compare command.
type CompareOptions struct {
	*RootOptions
	Traces            []string // BROWSER=PATH entries
	Baseline          string
	Known             string
	ReportPath        string
	Mode              string
	MaxPrintedUnknown int
	Suite             string
}

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare resize-storm traces across browser runs",
		Long: `Compare browser-labeled JSONL traces of the same deterministic
resize scenario and classify their divergences.

Each non-baseline trace is diffed against the baseline on the invariant
surface (run outcome, delivered resize inputs, distinct geometries
reached, final frame). Diffs matching an authored known-divergence rule
are reported as known; the rest are unknown and gate the run according
to the mode.

Exit codes:
  0 - Overall status pass, or warn (warn mode with unknown diffs)
  1 - Overall status fail (strict mode with unknown diffs)
  2 - Usage, trace load, signature or rule format error (no report written)

Examples:
  fttrace compare --trace chrome=chrome.jsonl --trace firefox=firefox.jsonl --report report.json
  fttrace compare --suite suite.yaml --report report.json --mode strict
  fttrace compare --trace chrome=a.jsonl --trace firefox=b.jsonl --known rules.tsv --report out/report.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(opts, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Traces, "trace", nil, "trace input mapping BROWSER=PATH (repeat for each browser, min 2)")
	cmd.Flags().StringVar(&opts.Baseline, "baseline", "", "baseline browser label (default: first trace entry)")
	cmd.Flags().StringVar(&opts.Known, "known", "", "known divergences TSV (class, left, right, path_pattern, rationale)")
	cmd.Flags().StringVar(&opts.ReportPath, "report", "", "output report path (JSON, required)")
	_ = cmd.MarkFlagRequired("report")
	cmd.Flags().StringVar(&opts.Mode, "mode", "warn", "fail behavior for unknown divergences (warn|strict)")
	cmd.Flags().IntVar(&opts.MaxPrintedUnknown, "max-printed-unknown", 20, "limit unknown diff lines printed to stdout")
	cmd.Flags().StringVar(&opts.Suite, "suite", "", "YAML suite config providing traces/baseline/known/mode defaults")

	return cmd
}

// compareConfig is the fully resolved comparison run: suite defaults
// merged with flags, flags winning on conflict.
type compareConfig struct {
	SuiteName string
	Mode      report.Mode
	Baseline  string
	Known     string
	Inputs    []report.Input
}

func runCompare(opts *CompareOptions, cmd *cobra.Command) error {
	cfg, err := resolveCompareConfig(opts, cmd)
	if err != nil {
		return err
	}

	formatter := formatterFor(opts.RootOptions, cmd)

	var ruleSet []rules.Rule
	if cfg.Known != "" {
		ruleSet, err = rules.ParseFile(cfg.Known)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load known divergence rules", err)
		}
		formatter.VerboseLog("loaded %d known divergence rules from %s", len(ruleSet), cfg.Known)
	}

	// Signatures are computed exactly once per labeled trace and reused
	// across all comparisons against that trace.
	sigs := make(map[string]*signature.Signature, len(cfg.Inputs))
	for _, in := range cfg.Inputs {
		events, err := trace.Load(in.Path)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to load trace for %s", in.Browser), err)
		}
		sig, err := signature.Extract(events)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("trace %s (%s)", in.Browser, in.Path), err)
		}
		sigs[in.Browser] = sig
		formatter.VerboseLog("trace %s: %d events, %d resize inputs, %d frames, %d distinct geometries",
			in.Browser, len(events), len(sig.ResizeInputs), len(sig.Frames), len(sig.GeometrySequence))
	}

	rep := report.Build(cfg.SuiteName, cfg.Mode, cfg.Baseline, cfg.Inputs, sigs, ruleSet)

	if err := rep.Write(opts.ReportPath); err != nil {
		return WrapExitError(ExitCommandError, "failed to write report", err)
	}

	if opts.Format == "json" {
		return outputCompareJSON(cmd, rep)
	}
	return outputCompareText(cmd, rep, opts.ReportPath, opts.MaxPrintedUnknown)
}

// resolveCompareConfig merges the optional suite file with flags and
// validates the result. All violations here are usage errors: fatal,
// exit 2, before any trace is opened.
func resolveCompareConfig(opts *CompareOptions, cmd *cobra.Command) (*compareConfig, error) {
	cfg := &compareConfig{
		SuiteName: report.DefaultSuite,
		Mode:      report.ModeWarn,
	}

	if opts.Suite != "" {
		s, err := suite.Load(opts.Suite)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load suite", err)
		}
		if s.Name != "" {
			cfg.SuiteName = s.Name
		}
		if s.Mode != "" {
			cfg.Mode = report.Mode(s.Mode)
		}
		cfg.Baseline = s.Baseline
		cfg.Known = s.Known
		for _, ref := range s.Traces {
			cfg.Inputs = append(cfg.Inputs, report.Input{Browser: ref.Browser, Path: ref.Path})
		}
	}

	flagInputs, err := parseTraceFlags(opts.Traces)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid --trace inputs", err)
	}
	for _, in := range flagInputs {
		replaced := false
		for i := range cfg.Inputs {
			if cfg.Inputs[i].Browser == in.Browser {
				cfg.Inputs[i] = in // flag wins over suite entry
				replaced = true
				break
			}
		}
		if !replaced {
			cfg.Inputs = append(cfg.Inputs, in)
		}
	}

	if len(cfg.Inputs) < 2 {
		return nil, NewExitError(ExitCommandError, "at least two trace inputs are required")
	}

	if cmd.Flags().Changed("mode") || opts.Suite == "" {
		cfg.Mode = report.Mode(opts.Mode)
	}
	if !cfg.Mode.Valid() {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid mode %q: must be warn or strict", cfg.Mode))
	}

	if opts.Baseline != "" {
		cfg.Baseline = strings.TrimSpace(opts.Baseline)
	}
	if cfg.Baseline == "" {
		cfg.Baseline = cfg.Inputs[0].Browser
	}
	found := false
	for _, in := range cfg.Inputs {
		if in.Browser == cfg.Baseline {
			found = true
			break
		}
	}
	if !found {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("baseline browser %q not found in trace set", cfg.Baseline))
	}

	if opts.Known != "" {
		cfg.Known = opts.Known
	}

	return cfg, nil
}

// parseTraceFlags parses repeated BROWSER=PATH values, rejecting
// duplicates and empty labels.
func parseTraceFlags(raw []string) ([]report.Input, error) {
	var inputs []report.Input
	seen := make(map[string]bool, len(raw))
	for _, item := range raw {
		browser, path, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --trace value (expected BROWSER=PATH): %s", item)
		}
		browser = strings.TrimSpace(browser)
		path = strings.TrimSpace(path)
		if browser == "" {
			return nil, fmt.Errorf("empty browser label in --trace: %s", item)
		}
		if seen[browser] {
			return nil, fmt.Errorf("duplicate browser label in --trace inputs: %s", browser)
		}
		seen[browser] = true
		inputs = append(inputs, report.Input{Browser: browser, Path: path})
	}
	return inputs, nil
}

// outputCompareJSON outputs the report as a CLIResponse.
func outputCompareJSON(cmd *cobra.Command, rep *report.Report) error {
	response := CLIResponse{
		Status: "ok",
		Data:   rep,
	}
	if rep.Summary.Status == report.StatusFail {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_UNKNOWN_DIVERGENCE",
			Message: fmt.Sprintf("%d unknown divergence(s) in strict mode", rep.Summary.UnknownDiffs),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if rep.Summary.Status == report.StatusFail {
		return NewExitError(ExitFailure, "unknown divergences in strict mode")
	}
	return nil
}

// outputCompareText outputs the report summary as text.
func outputCompareText(cmd *cobra.Command, rep *report.Report, reportPath string, maxPrintedUnknown int) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Comparison Summary: baseline=%s comparisons=%d known=%d unknown=%d mode=%s\n",
		rep.BaselineBrowser, rep.Summary.TotalComparisons, rep.Summary.KnownDiffs, rep.Summary.UnknownDiffs, rep.Mode)

	if rep.Summary.UnknownDiffs > 0 {
		fmt.Fprintln(w, "Unknown divergences:")
		printed := 0
	outer:
		for _, cmp := range rep.Comparisons {
			for _, d := range cmp.UnknownDiffs {
				if printed >= maxPrintedUnknown {
					fmt.Fprintf(w, "  ... truncated unknown divergence output at %d entries\n", maxPrintedUnknown)
					break outer
				}
				fmt.Fprintf(w, "  - %s vs %s %s %s expected=%v actual=%v\n",
					d.BaselineBrowser, d.TargetBrowser, d.Class, d.Path, d.Expected, d.Actual)
				printed++
			}
		}
	}

	fmt.Fprintf(w, "Report: %s\n", reportPath)

	switch rep.Summary.Status {
	case report.StatusPass:
		fmt.Fprintln(w, "✓ All comparisons passed")
		return nil
	case report.StatusWarn:
		fmt.Fprintln(w, "✓ Unknown divergences present (warn mode, not gating)")
		return nil
	default:
		fmt.Fprintln(w, "✗ Unknown divergences in strict mode")
		return NewExitError(ExitFailure, "unknown divergences in strict mode")
	}
}
