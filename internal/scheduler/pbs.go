package scheduler

import (
	"os"
	"regexp"
	"strings"
)

// PbsScheduler implements the Scheduler interface for PBS/Torque clusters.
// Directives use the #PBS prefix; submission goes through qsub, which prints
// the job ID as its entire output.
type PbsScheduler struct {
	qsubBin string
	jobIDRe *regexp.Regexp
	runner  Runner
}

// NewPbsScheduler creates a PBS scheduler using qsub from PATH
func NewPbsScheduler() (*PbsScheduler, error) {
	return NewPbsSchedulerWithBinary("")
}

// NewPbsSchedulerWithBinary creates a PBS scheduler using an explicit qsub path
func NewPbsSchedulerWithBinary(qsubBin string) (*PbsScheduler, error) {
	binPath, err := lookupBinary(qsubBin, "qsub")
	if err != nil {
		return nil, err
	}
	p := newPbsScheduler()
	p.qsubBin = binPath
	return p, nil
}

// newPbsScheduler builds a PBS scheduler with no submit binary resolved.
// Rendering works without qsub; submission does not.
func newPbsScheduler() *PbsScheduler {
	return &PbsScheduler{
		// qsub emits the bare job ID, e.g. "2873450.tscc-mgr.local" or "2873450"
		jobIDRe: regexp.MustCompile(`^\d+(?:\..*)?$`),
		runner:  execRunner{},
	}
}

// Type returns the PBS dialect tag
func (p *PbsScheduler) Type() Dialect {
	return DialectPBS
}

// IsAvailable checks if qsub is present and we're not inside a PBS job
func (p *PbsScheduler) IsAvailable() bool {
	if p.qsubBin == "" {
		return false
	}
	_, inJob := os.LookupEnv("PBS_JOBID")
	return !inJob
}

// GetInfo returns information about the PBS scheduler
func (p *PbsScheduler) GetInfo() *SchedulerInfo {
	_, inJob := os.LookupEnv("PBS_JOBID")
	info := &SchedulerInfo{
		Type:      string(DialectPBS),
		Binary:    p.qsubBin,
		InJob:     inJob,
		Available: p.IsAvailable(),
	}
	if version, err := binaryVersion(p.runner, p.qsubBin); err == nil {
		info.Version = version
	}
	return info
}

// SetJobIDPattern overrides the job ID extraction pattern
func (p *PbsScheduler) SetJobIDPattern(re *regexp.Regexp) {
	p.jobIDRe = re
}

// SetRunner overrides the command runner (used by tests)
func (p *PbsScheduler) SetRunner(r Runner) {
	p.runner = r
}

// Render generates the PBS batch script for spec
func (p *PbsScheduler) Render(spec *JobSpec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}
	walltime, err := ParseWalltime(spec.Walltime)
	if err != nil {
		return "", err
	}

	d := newDirectiveList("#PBS")
	d.add("-N %s", spec.JobName)
	d.add("-o %s", spec.StdoutPath)
	d.add("-e %s", spec.StderrPath)
	d.add("-V")
	d.add("-l walltime=%s", walltime)
	d.add("-l nodes=%d:ppn=%d", spec.Nodes, spec.Ppn)
	d.add("-A %s", spec.Account)
	d.add("-q %s", spec.Queue)
	d.addExtras(spec.ExtraResources)
	if spec.IsArray() {
		d.add("-t %s", taskRange(spec.NumTasks(), spec.MaxRunning))
	}

	return renderScript(d.lines, "PBS_O_WORKDIR", "PBS_ARRAYID", spec), nil
}

// Submit writes the script and submits it through qsub
func (p *PbsScheduler) Submit(spec *JobSpec) (string, error) {
	return submitScript(p, p.runner, p.qsubBin, p.jobIDRe, spec)
}

// binaryVersion asks a submit binary for its version string
func binaryVersion(runner Runner, bin string) (string, error) {
	output, err := runner.Run(bin, "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}
