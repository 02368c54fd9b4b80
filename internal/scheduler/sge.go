package scheduler

import (
	"os"
	"regexp"
)

// SgeScheduler implements the Scheduler interface for Sun/Son of Grid Engine.
// Directives use the #$ prefix; submission goes through qsub, which embeds the
// job ID inside a sentence rather than printing it bare.
type SgeScheduler struct {
	qsubBin string
	jobIDRe *regexp.Regexp
	runner  Runner
}

// NewSgeScheduler creates an SGE scheduler using qsub from PATH
func NewSgeScheduler() (*SgeScheduler, error) {
	return NewSgeSchedulerWithBinary("")
}

// NewSgeSchedulerWithBinary creates an SGE scheduler using an explicit qsub path
func NewSgeSchedulerWithBinary(qsubBin string) (*SgeScheduler, error) {
	binPath, err := lookupBinary(qsubBin, "qsub")
	if err != nil {
		return nil, err
	}
	s := newSgeScheduler()
	s.qsubBin = binPath
	return s, nil
}

// newSgeScheduler builds an SGE scheduler with no submit binary resolved.
func newSgeScheduler() *SgeScheduler {
	return &SgeScheduler{
		// SGE qsub says: Your job 3559709 ("jobname") has been submitted
		// The exact wording varies between Grid Engine forks; override with
		// SetJobIDPattern when a cluster phrases it differently.
		jobIDRe: regexp.MustCompile(`Your job(?:-array)? (\d+)`),
		runner:  execRunner{},
	}
}

// Type returns the SGE dialect tag
func (s *SgeScheduler) Type() Dialect {
	return DialectSGE
}

// IsAvailable checks if qsub is present and we're not inside an SGE job
func (s *SgeScheduler) IsAvailable() bool {
	if s.qsubBin == "" {
		return false
	}
	// SGE exports JOB_ID inside running jobs
	_, inJob := os.LookupEnv("JOB_ID")
	return !inJob
}

// GetInfo returns information about the SGE scheduler
func (s *SgeScheduler) GetInfo() *SchedulerInfo {
	_, inJob := os.LookupEnv("JOB_ID")
	info := &SchedulerInfo{
		Type:      string(DialectSGE),
		Binary:    s.qsubBin,
		InJob:     inJob,
		Available: s.IsAvailable(),
	}
	if version, err := binaryVersion(s.runner, s.qsubBin); err == nil {
		info.Version = version
	}
	return info
}

// SetJobIDPattern overrides the job ID extraction pattern
func (s *SgeScheduler) SetJobIDPattern(re *regexp.Regexp) {
	s.jobIDRe = re
}

// SetRunner overrides the command runner (used by tests)
func (s *SgeScheduler) SetRunner(r Runner) {
	s.runner = r
}

// Render generates the SGE batch script for spec
func (s *SgeScheduler) Render(spec *JobSpec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}
	walltime, err := ParseWalltime(spec.Walltime)
	if err != nil {
		return "", err
	}

	d := newDirectiveList("#$")
	d.add("-N %s", spec.JobName)
	d.add("-o %s", spec.StdoutPath)
	d.add("-e %s", spec.StderrPath)
	d.add("-V")
	d.add("-S /bin/bash")
	d.add("-l h_rt=%s", walltime)
	// Grid Engine requests processors through a parallel environment, not a
	// nodes:ppn token
	d.add("-pe smp %d", spec.Nodes*spec.Ppn)
	d.add("-A %s", spec.Account)
	d.add("-q %s", spec.Queue)
	d.addExtras(spec.ExtraResources)
	if spec.IsArray() {
		d.add("-t 1-%d", spec.NumTasks())
		if spec.MaxRunning > 0 {
			d.add("-tc %d", spec.MaxRunning)
		}
	}

	return renderScript(d.lines, "SGE_O_WORKDIR", "SGE_TASK_ID", spec), nil
}

// Submit writes the script and submits it through qsub
func (s *SgeScheduler) Submit(spec *JobSpec) (string, error) {
	return submitScript(s, s.runner, s.qsubBin, s.jobIDRe, spec)
}
