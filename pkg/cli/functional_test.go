package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dcfrancisco/marina/internal/config"
)

// TestFunctional runs every testdata program that has a .want file and
// compares stdout followed by stderr with it.
func TestFunctional(t *testing.T) {
	t.Setenv(config.EnvANSI, "never")

	var testFiles []string
	err := filepath.Walk("testdata", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !config.IsSourceFile(path) {
			return nil
		}
		wantFile := config.TrimSourceExt(path) + ".want"
		if _, err := os.Stat(wantFile); err == nil {
			testFiles = append(testFiles, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to walk directory: %v", err)
	}
	if len(testFiles) == 0 {
		t.Fatal("No test files with .want found")
	}

	for _, testFile := range testFiles {
		testName := filepath.Base(config.TrimSourceExt(testFile))

		t.Run(testName, func(t *testing.T) {
			wantBytes, err := os.ReadFile(config.TrimSourceExt(testFile) + ".want")
			if err != nil {
				t.Fatalf("Failed to read .want file: %v", err)
			}

			var stdout, stderr bytes.Buffer
			Run([]string{testFile}, strings.NewReader(""), &stdout, &stderr)

			// Combine: stdout first, then stderr
			got := strings.TrimSpace(stdout.String())
			if errStr := strings.TrimSpace(stderr.String()); errStr != "" {
				if got != "" {
					got += "\n"
				}
				got += errStr
			}

			got = strings.TrimSpace(strings.ReplaceAll(got, "\r\n", "\n"))
			want := strings.TrimSpace(strings.ReplaceAll(string(wantBytes), "\r\n", "\n"))
			if got != want {
				t.Errorf("Output mismatch:\n--- want ---\n%s\n--- got ---\n%s", want, got)
			}
		})
	}
}
