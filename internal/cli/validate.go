package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nightisyang/frankentui/internal/telemetry"
	"github.com/nightisyang/frankentui/internal/trace"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Input      string
	Profile    string
	Workflow   string
	ReportJSON string
}

// validWorkflows are the workflow profiles a stream can be checked against.
var validWorkflows = []string{"generic", "happy", "failure"}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate raw telemetry JSONL against a schema profile",
		Long: `Validate an e2e telemetry JSONL stream against a schema profile and
workflow rules.

Every event is checked against the built-in envelope schema and the
profile's field rules; the stream as a whole is checked against the
selected workflow's structural rules (required event types, correlation
id discipline, artifact minimums).

Exit codes:
  0 - Stream valid
  1 - Validation failures found
  2 - Command error (missing input, malformed profile, bad JSONL line)

Examples:
  fttrace validate --input meta/events.jsonl --profile e2e_jsonl_schema.json
  fttrace validate --input meta/events.jsonl --profile schema.json --workflow happy --report-json out/validation.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Input, "input", "", "path to JSONL event stream (required)")
	_ = cmd.MarkFlagRequired("input")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "path to schema profile JSON (required)")
	_ = cmd.MarkFlagRequired("profile")
	cmd.Flags().StringVar(&opts.Workflow, "workflow", "generic", "workflow profile to enforce (generic|happy|failure)")
	cmd.Flags().StringVar(&opts.ReportJSON, "report-json", "", "optional path for the machine-readable validation report")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	if !isValidWorkflow(opts.Workflow) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid workflow %q: must be one of %v", opts.Workflow, validWorkflows))
	}

	formatter := formatterFor(opts.RootOptions, cmd)

	profile, err := telemetry.LoadProfile(opts.Profile, opts.Workflow)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load schema profile", err)
	}
	formatter.VerboseLog("profile %s v%s, workflow %s", profile.SchemaName, profile.SchemaVersion, opts.Workflow)

	events, err := trace.ReadObjects(opts.Input)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read event stream", err)
	}
	formatter.VerboseLog("read %d events from %s", len(events), opts.Input)

	result, err := telemetry.ValidateStream(events, profile, opts.Workflow)
	if err != nil {
		return WrapExitError(ExitCommandError, "validation setup failed", err)
	}
	result.ReportID = uuid.Must(uuid.NewV7()).String()

	if opts.ReportJSON != "" {
		if err := writeJSONFile(opts.ReportJSON, result); err != nil {
			return WrapExitError(ExitCommandError, "failed to write validation report", err)
		}
	}

	if opts.Format == "json" {
		return outputValidateJSON(cmd, result)
	}
	return outputValidateText(cmd, result, opts)
}

func isValidWorkflow(workflow string) bool {
	for _, w := range validWorkflows {
		if w == workflow {
			return true
		}
	}
	return false
}

// writeJSONFile writes an indented JSON document, creating parent
// directories as needed.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// outputValidateJSON outputs the validation result as a CLIResponse.
func outputValidateJSON(cmd *cobra.Command, result *telemetry.Result) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if result.Status == "failed" {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_VALIDATION_FAILED",
			Message: fmt.Sprintf("%d validation error(s)", len(result.Errors)),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if result.Status == "failed" {
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(result.Errors)))
	}
	return nil
}

// outputValidateText outputs the validation result as text.
func outputValidateText(cmd *cobra.Command, result *telemetry.Result, opts *ValidateOptions) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validation Summary: workflow=%s events=%d errors=%d\n",
		result.Workflow, result.TotalEvents, len(result.Errors))
	if opts.ReportJSON != "" {
		fmt.Fprintf(w, "Report: %s\n", opts.ReportJSON)
	}

	if result.Status == "failed" {
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		fmt.Fprintln(w, "✗ Stream failed validation")
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(result.Errors)))
	}

	fmt.Fprintln(w, "✓ Stream valid")
	return nil
}
