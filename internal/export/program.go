// Package export writes generated programs and their setup sheets to disk.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultProgramExt is used when no extension is configured.
const DefaultProgramExt = ".nc"

// WriteProgram writes program lines to path, one per line, creating the
// parent directory if needed.
func WriteProgram(path string, lines []string) error {
	if len(lines) == 0 {
		return fmt.Errorf("empty program")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	data := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return fmt.Errorf("write program: %w", err)
	}
	return nil
}

// OutputPath places a file derived from input into outDir, or next to the
// input when outDir is empty, replacing the input extension with ext.
func OutputPath(input, outDir, ext string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if outDir == "" {
		outDir = filepath.Dir(input)
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(outDir, base+ext)
}
