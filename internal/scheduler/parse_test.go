package scheduler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCommandsFromScriptRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, "roundtrip.sh")

	commands := []string{
		"bedtools intersect a.bed b.bed",
		"samtools index sample.bam",
		"phastCons chr1.maf",
	}
	spec, err := NewJobSpec(commands, "roundtrip",
		WithArray(), WithScriptPath(scriptPath))
	if err != nil {
		t.Fatalf("NewJobSpec failed: %v", err)
	}

	pbs := newTestPbsScheduler()
	script, err := pbs.Render(spec)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if err := os.WriteFile(scriptPath, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	parsed, err := CommandsFromScript(scriptPath)
	if err != nil {
		t.Fatalf("CommandsFromScript failed: %v", err)
	}
	if len(parsed) != len(commands) {
		t.Fatalf("parsed %d commands; want %d", len(parsed), len(commands))
	}
	for i, want := range commands {
		if got := parsed[i+1]; got != want {
			t.Errorf("task %d = %q; want %q", i+1, got, want)
		}
	}
}

func TestCommandsFromScriptPlainJob(t *testing.T) {
	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, "plain.sh")

	spec, err := NewJobSpec([]string{"echo hi"}, "plain",
		WithScriptPath(scriptPath))
	if err != nil {
		t.Fatalf("NewJobSpec failed: %v", err)
	}

	pbs := newTestPbsScheduler()
	script, err := pbs.Render(spec)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if err := os.WriteFile(scriptPath, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	parsed, err := CommandsFromScript(scriptPath)
	if err != nil {
		t.Fatalf("CommandsFromScript failed: %v", err)
	}
	if len(parsed) != 0 {
		t.Errorf("plain job script should yield no task commands, got %v", parsed)
	}
}

func TestCommandsFromScriptMissingFile(t *testing.T) {
	_, err := CommandsFromScript(filepath.Join(t.TempDir(), "nope.sh"))
	if !errors.Is(err, ErrScriptNotFound) {
		t.Errorf("expected ErrScriptNotFound, got: %v", err)
	}
}
