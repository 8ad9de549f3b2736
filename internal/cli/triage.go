package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nightisyang/frankentui/internal/triage"
)

// TriageOptions holds flags for the triage command.
type TriageOptions struct {
	*RootOptions
	RunRoot     string
	OutputJSON  string
	MaxSignals  int
	MaxTimeline int
}

// NewTriageCommand creates the triage command.
func NewTriageCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TriageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Summarize a failed e2e run into ranked failure signals",
		Long: `Generate a replay/triage summary from the artifacts of one e2e run.

Reads meta/summary.json, meta/events.jsonl and
meta/events_validation_report.json under the run root (tolerating any
subset being missing or truncated) and produces ranked failure signals
plus a compact timeline.

Exit codes:
  0 - Triage report produced
  2 - Command error (no usable artifacts under the run root)

Examples:
  fttrace triage --run-root ./artifacts/run-42
  fttrace triage --run-root ./artifacts/run-42 --max-signals 10 --output-json triage.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTriage(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunRoot, "run-root", "", "path to an e2e run root containing meta/ (required)")
	_ = cmd.MarkFlagRequired("run-root")
	cmd.Flags().StringVar(&opts.OutputJSON, "output-json", "", "output path for the triage report (default: <run-root>/meta/replay_triage_report.json)")
	cmd.Flags().IntVar(&opts.MaxSignals, "max-signals", 5, "maximum number of top failure signals in compact output")
	cmd.Flags().IntVar(&opts.MaxTimeline, "max-timeline", 40, "maximum number of timeline entries")

	return cmd
}

func runTriage(opts *TriageOptions, cmd *cobra.Command) error {
	formatter := formatterFor(opts.RootOptions, cmd)

	rep, err := triage.Run(opts.RunRoot, opts.MaxSignals, opts.MaxTimeline)
	if err != nil {
		return WrapExitError(ExitCommandError, "triage failed", err)
	}
	formatter.VerboseLog("collected %d signals from %d events under %s", rep.SignalCount, rep.EventCount, opts.RunRoot)

	outputPath := opts.OutputJSON
	if outputPath == "" {
		outputPath = filepath.Join(opts.RunRoot, "meta", "replay_triage_report.json")
	}
	if err := writeJSONFile(outputPath, rep); err != nil {
		return WrapExitError(ExitCommandError, "failed to write triage report", err)
	}

	if opts.Format == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: rep})
	}
	return outputTriageText(cmd, rep, outputPath)
}

// outputTriageText outputs the triage summary as text.
func outputTriageText(cmd *cobra.Command, rep *triage.Report, outputPath string) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "status=%s\n", rep.Status)
	fmt.Fprintf(w, "run_root=%s\n", rep.RunRoot)
	fmt.Fprintf(w, "event_count=%d\n", rep.EventCount)
	fmt.Fprintf(w, "signal_count=%d\n", rep.SignalCount)
	fmt.Fprintf(w, "report_json=%s\n", outputPath)

	if len(rep.TopFailureSignals) > 0 {
		fmt.Fprintln(w, "top_failure_signals:")
		for _, s := range rep.TopFailureSignals {
			location := "event=summary"
			if s.EventIndex > 0 {
				location = fmt.Sprintf("event_index=%d", s.EventIndex)
			}
			fmt.Fprintf(w, "- severity=%d %s event_type=%s case_id=%s step_id=%s message=%s\n",
				s.Severity, location, s.EventType, s.CaseID, s.StepID, s.Message)
			for i, pointer := range s.Pointers {
				if i >= 3 {
					break
				}
				fmt.Fprintf(w, "  pointer=%s\n", pointer)
			}
		}
	}
	return nil
}
