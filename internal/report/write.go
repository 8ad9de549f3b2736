package report

import (
	"fmt"
	"os"
	"path/filepath"
)

// Write serializes the report canonically and writes it to path,
// creating parent directories as needed. Nothing is written if
// serialization fails, so a partial report never reaches disk.
func (r *Report) Write(path string) error {
	data, err := MarshalCanonical(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
