package scheduler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRunner stands in for the scheduler submit binary in tests
type fakeRunner struct {
	output []byte
	err    error
	calls  [][]string
}

func (f *fakeRunner) Run(name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.output, f.err
}

func TestSubmitWritesScriptAndParsesJobID(t *testing.T) {
	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, "job.sh")

	spec, err := NewJobSpec([]string{"echo hi"}, "job", WithScriptPath(scriptPath))
	if err != nil {
		t.Fatalf("NewJobSpec failed: %v", err)
	}

	pbs := newTestPbsScheduler()
	runner := &fakeRunner{output: []byte("2873450.tscc-mgr.local\n")}
	pbs.SetRunner(runner)

	jobID, err := pbs.Submit(spec)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if jobID != "2873450.tscc-mgr.local" {
		t.Errorf("jobID = %q; want 2873450.tscc-mgr.local", jobID)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("runner calls = %d; want 1", len(runner.calls))
	}
	call := runner.calls[0]
	if call[0] != "/usr/bin/qsub" || call[1] != scriptPath {
		t.Errorf("unexpected invocation: %v", call)
	}

	if _, err := os.Stat(scriptPath); err != nil {
		t.Errorf("script file should exist after submission: %v", err)
	}
}

func TestSubmitFailureLeavesScriptOnDisk(t *testing.T) {
	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, "fail.sh")

	spec, err := NewJobSpec([]string{"echo hi"}, "fail", WithScriptPath(scriptPath))
	if err != nil {
		t.Fatalf("NewJobSpec failed: %v", err)
	}

	pbs := newTestPbsScheduler()
	pbs.SetRunner(&fakeRunner{
		output: []byte("qsub: would exceed queue's walltime limit\n"),
		err:    errors.New("exit status 1"),
	})

	_, err = pbs.Submit(spec)
	if err == nil {
		t.Fatal("expected submission error, got nil")
	}
	var se *SubmissionError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SubmissionError, got %T: %v", err, err)
	}
	if se.Output == "" {
		t.Error("SubmissionError should carry the captured scheduler output")
	}

	// The script stays behind as diagnostic evidence
	if _, statErr := os.Stat(scriptPath); statErr != nil {
		t.Errorf("script file should remain on disk after a failed submission: %v", statErr)
	}
}

func TestSubmitUnparseableOutput(t *testing.T) {
	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, "weird.sh")

	spec, err := NewJobSpec([]string{"echo hi"}, "weird", WithScriptPath(scriptPath))
	if err != nil {
		t.Fatalf("NewJobSpec failed: %v", err)
	}

	pbs := newTestPbsScheduler()
	pbs.SetRunner(&fakeRunner{output: []byte("warning: something unexpected\n")})

	_, err = pbs.Submit(spec)
	if err == nil {
		t.Fatal("expected job ID parse error, got nil")
	}
	if !errors.Is(err, ErrJobIDParseFailed) {
		t.Errorf("expected ErrJobIDParseFailed, got: %v", err)
	}
	var se *SubmissionError
	if !errors.As(err, &se) {
		t.Errorf("parse failure should surface as *SubmissionError, got %T", err)
	}
}

func TestSubmitDryRun(t *testing.T) {
	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, "dry.sh")

	spec, err := NewJobSpec([]string{"echo hi"}, "dry",
		WithScriptPath(scriptPath), WithoutSubmit())
	if err != nil {
		t.Fatalf("NewJobSpec failed: %v", err)
	}

	pbs := newTestPbsScheduler()
	runner := &fakeRunner{output: []byte("123\n")}
	pbs.SetRunner(runner)

	jobID, err := pbs.Submit(spec)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if jobID != "" {
		t.Errorf("dry run returned job ID %q; want empty", jobID)
	}
	if len(runner.calls) != 0 {
		t.Errorf("dry run invoked the submit binary %d time(s)", len(runner.calls))
	}
	if _, err := os.Stat(scriptPath); err != nil {
		t.Errorf("dry run should still write the script: %v", err)
	}
}

func TestValidationFailureWritesNoFile(t *testing.T) {
	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, "invalid.sh")

	spec := &JobSpec{
		Commands:   []string{},
		JobName:    "invalid",
		Walltime:   "00:30:00",
		Nodes:      1,
		Ppn:        1,
		Queue:      "home",
		Account:    "yeo-group",
		ScriptPath: scriptPath,
		SubmitJob:  true,
	}

	pbs := newTestPbsScheduler()
	runner := &fakeRunner{output: []byte("123\n")}
	pbs.SetRunner(runner)

	_, err := pbs.Submit(spec)
	if !IsValidationError(err) {
		t.Fatalf("expected validation error, got: %v", err)
	}
	if _, statErr := os.Stat(scriptPath); !os.IsNotExist(statErr) {
		t.Error("no script file may be written when validation fails")
	}
	if len(runner.calls) != 0 {
		t.Error("no external process may be spawned when validation fails")
	}
}

func TestSubmitAllSingleJob(t *testing.T) {
	tmpDir := t.TempDir()
	spec, err := NewJobSpec([]string{"echo hi"}, "one",
		WithScriptPath(filepath.Join(tmpDir, "one.sh")))
	if err != nil {
		t.Fatalf("NewJobSpec failed: %v", err)
	}

	pbs := newTestPbsScheduler()
	pbs.SetRunner(&fakeRunner{output: []byte("77\n")})

	jobIDs, err := SubmitAll(pbs, spec)
	if err != nil {
		t.Fatalf("SubmitAll failed: %v", err)
	}
	if len(jobIDs) != 1 || jobIDs[0] != "77" {
		t.Errorf("jobIDs = %v; want [77]", jobIDs)
	}
}

func TestSubmitAllChunked(t *testing.T) {
	tmpDir := t.TempDir()

	commands := make([]string, 25)
	for i := range commands {
		commands[i] = fmt.Sprintf("process sample%d", i)
	}
	spec, err := NewJobSpec(commands, "chunky",
		WithChunkSize(10),
		WithScriptPath(filepath.Join(tmpDir, "chunky.sh")),
		WithStdoutPath(filepath.Join(tmpDir, "chunky.out")),
		WithStderrPath(filepath.Join(tmpDir, "chunky.err")))
	if err != nil {
		t.Fatalf("NewJobSpec failed: %v", err)
	}

	pbs := newTestPbsScheduler()
	runner := &fakeRunner{output: []byte("55\n")}
	pbs.SetRunner(runner)

	jobIDs, err := SubmitAll(pbs, spec)
	if err != nil {
		t.Fatalf("SubmitAll failed: %v", err)
	}

	// 25 commands at 10 per chunk → 3 sub-jobs
	if len(jobIDs) != 3 {
		t.Fatalf("jobIDs = %v; want 3 entries", jobIDs)
	}
	if len(runner.calls) != 3 {
		t.Fatalf("runner calls = %d; want 3", len(runner.calls))
	}

	for i := 1; i <= 3; i++ {
		path := filepath.Join(tmpDir, fmt.Sprintf("chunky%d.sh", i))
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("missing chunk script %s: %v", path, err)
		}
		if i < 3 && strings.Count(string(data), "process sample") != 10 {
			t.Errorf("chunk %d should carry 10 commands", i)
		}
		if i == 3 && strings.Count(string(data), "process sample") != 5 {
			t.Errorf("last chunk should carry the 5 remaining commands")
		}
	}
}

func TestSubmitAllSplitsOversizedArray(t *testing.T) {
	tmpDir := t.TempDir()

	commands := make([]string, MaxArrayTasks+101)
	for i := range commands {
		commands[i] = fmt.Sprintf("task %d", i)
	}
	spec, err := NewJobSpec(commands, "huge",
		WithArray(),
		WithScriptPath(filepath.Join(tmpDir, "huge.sh")),
		WithStdoutPath(filepath.Join(tmpDir, "huge.out")),
		WithStderrPath(filepath.Join(tmpDir, "huge.err")))
	if err != nil {
		t.Fatalf("NewJobSpec failed: %v", err)
	}

	pbs := newTestPbsScheduler()
	pbs.SetRunner(&fakeRunner{output: []byte("90\n")})

	jobIDs, err := SubmitAll(pbs, spec)
	if err != nil {
		t.Fatalf("SubmitAll failed: %v", err)
	}
	if len(jobIDs) != 2 {
		t.Fatalf("jobIDs = %v; want 2 entries", jobIDs)
	}

	first, err := os.ReadFile(filepath.Join(tmpDir, "huge1.sh"))
	if err != nil {
		t.Fatalf("missing first split script: %v", err)
	}
	if want := fmt.Sprintf("-t 1-%d", MaxArrayTasks); !strings.Contains(string(first), want) {
		t.Errorf("first split should cover %d tasks", MaxArrayTasks)
	}

	second, err := os.ReadFile(filepath.Join(tmpDir, "huge2.sh"))
	if err != nil {
		t.Fatalf("missing second split script: %v", err)
	}
	if !strings.Contains(string(second), "-t 1-101") {
		t.Error("second split should cover the 101 remaining tasks")
	}
}
