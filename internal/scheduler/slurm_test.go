package scheduler

import (
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func newTestSlurmScheduler() *SlurmScheduler {
	return &SlurmScheduler{
		sbatchBin: "/usr/bin/sbatch",
		jobIDRe:   regexp.MustCompile(`Submitted batch job (\d+)`),
		runner:    execRunner{},
	}
}

func TestSlurmRenderSingleCommand(t *testing.T) {
	spec, err := NewJobSpec([]string{"echo hello"}, "slurmjob", WithPpn(2))
	if err != nil {
		t.Fatalf("NewJobSpec failed: %v", err)
	}

	slurm := newTestSlurmScheduler()
	script, err := slurm.Render(spec)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	checks := []struct{ label, want string }{
		{"job name", "#SBATCH -J slurmjob\n"},
		{"stdout default", "#SBATCH -o slurmjob.out\n"},
		{"stderr default", "#SBATCH -e slurmjob.err\n"},
		{"export env", "#SBATCH --export=ALL\n"},
		{"walltime", "#SBATCH -t 00:30:00\n"},
		{"nodes", "#SBATCH -N 1\n"},
		{"tasks per node", "#SBATCH --tasks-per-node 2\n"},
		{"workdir restore", "cd $SLURM_SUBMIT_DIR\n"},
	}
	for _, c := range checks {
		if !strings.Contains(script, c.want) {
			t.Errorf("[%s] missing %q\nScript:\n%s", c.label, c.want, script)
		}
	}
}

func TestSlurmRenderArrayJob(t *testing.T) {
	spec, err := NewJobSpec([]string{"echo a", "echo b"}, "slurmarray",
		WithArray(), WithMaxRunning(1))
	if err != nil {
		t.Fatalf("NewJobSpec failed: %v", err)
	}

	slurm := newTestSlurmScheduler()
	script, err := slurm.Render(spec)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if !strings.Contains(script, "#SBATCH --array=1-2%1\n") {
		t.Errorf("missing array directive\nScript:\n%s", script)
	}
	if !strings.Contains(script, "eval ${cmd[$SLURM_ARRAY_TASK_ID]}\n") {
		t.Errorf("missing dispatch line\nScript:\n%s", script)
	}
}

func TestSlurmJobIDExtraction(t *testing.T) {
	tmpDir := t.TempDir()
	spec, err := NewJobSpec([]string{"echo hi"}, "slurmsubmit",
		WithScriptPath(filepath.Join(tmpDir, "slurmsubmit.sh")))
	if err != nil {
		t.Fatalf("NewJobSpec failed: %v", err)
	}

	slurm := newTestSlurmScheduler()
	slurm.SetRunner(&fakeRunner{output: []byte("Submitted batch job 8675309\n")})

	jobID, err := slurm.Submit(spec)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if jobID != "8675309" {
		t.Errorf("jobID = %q; want 8675309", jobID)
	}
}
