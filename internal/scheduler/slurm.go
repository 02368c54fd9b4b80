package scheduler

import (
	"os"
	"regexp"
)

// SlurmScheduler implements the Scheduler interface for SLURM clusters.
// Directives use the #SBATCH prefix; submission goes through sbatch.
type SlurmScheduler struct {
	sbatchBin string
	jobIDRe   *regexp.Regexp
	runner    Runner
}

// NewSlurmScheduler creates a SLURM scheduler using sbatch from PATH
func NewSlurmScheduler() (*SlurmScheduler, error) {
	return NewSlurmSchedulerWithBinary("")
}

// NewSlurmSchedulerWithBinary creates a SLURM scheduler using an explicit sbatch path
func NewSlurmSchedulerWithBinary(sbatchBin string) (*SlurmScheduler, error) {
	binPath, err := lookupBinary(sbatchBin, "sbatch")
	if err != nil {
		return nil, err
	}
	s := newSlurmScheduler()
	s.sbatchBin = binPath
	return s, nil
}

// newSlurmScheduler builds a SLURM scheduler with no submit binary resolved.
func newSlurmScheduler() *SlurmScheduler {
	return &SlurmScheduler{
		jobIDRe: regexp.MustCompile(`Submitted batch job (\d+)`),
		runner:  execRunner{},
	}
}

// Type returns the SLURM dialect tag
func (s *SlurmScheduler) Type() Dialect {
	return DialectSLURM
}

// IsAvailable checks if sbatch is present and we're not inside a SLURM job
func (s *SlurmScheduler) IsAvailable() bool {
	if s.sbatchBin == "" {
		return false
	}
	_, inJob := os.LookupEnv("SLURM_JOB_ID")
	return !inJob
}

// GetInfo returns information about the SLURM scheduler
func (s *SlurmScheduler) GetInfo() *SchedulerInfo {
	_, inJob := os.LookupEnv("SLURM_JOB_ID")
	info := &SchedulerInfo{
		Type:      string(DialectSLURM),
		Binary:    s.sbatchBin,
		InJob:     inJob,
		Available: s.IsAvailable(),
	}
	if version, err := binaryVersion(s.runner, s.sbatchBin); err == nil {
		info.Version = version
	}
	return info
}

// SetJobIDPattern overrides the job ID extraction pattern
func (s *SlurmScheduler) SetJobIDPattern(re *regexp.Regexp) {
	s.jobIDRe = re
}

// SetRunner overrides the command runner (used by tests)
func (s *SlurmScheduler) SetRunner(r Runner) {
	s.runner = r
}

// Render generates the SLURM batch script for spec
func (s *SlurmScheduler) Render(spec *JobSpec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}
	walltime, err := ParseWalltime(spec.Walltime)
	if err != nil {
		return "", err
	}

	d := newDirectiveList("#SBATCH")
	d.add("-J %s", spec.JobName)
	d.add("-o %s", spec.StdoutPath)
	d.add("-e %s", spec.StderrPath)
	d.add("--export=ALL")
	d.add("-t %s", walltime)
	d.add("-N %d", spec.Nodes)
	d.add("--tasks-per-node %d", spec.Ppn)
	d.add("-A %s", spec.Account)
	d.add("-q %s", spec.Queue)
	d.addExtras(spec.ExtraResources)
	if spec.IsArray() {
		d.add("--array=%s", taskRange(spec.NumTasks(), spec.MaxRunning))
	}

	return renderScript(d.lines, "SLURM_SUBMIT_DIR", "SLURM_ARRAY_TASK_ID", spec), nil
}

// Submit writes the script and submits it through sbatch
func (s *SlurmScheduler) Submit(spec *JobSpec) (string, error) {
	return submitScript(s, s.runner, s.sbatchBin, s.jobIDRe, spec)
}
