// Package scheduler renders batch-job scripts for HPC schedulers and submits
// them through the scheduler's own command-line tools.
package scheduler

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
)

// Dialect identifies a scheduler directive dialect
type Dialect string

const (
	DialectUnknown Dialect = ""
	DialectPBS     Dialect = "PBS"
	DialectSGE     Dialect = "SGE"
	DialectSLURM   Dialect = "SLURM"
)

// SchedulerInfo holds information about a detected scheduler
type SchedulerInfo struct {
	Type      string // Scheduler dialect (e.g., "PBS", "SGE")
	Binary    string // Path to the submit binary (e.g., "/usr/bin/qsub")
	Version   string // Scheduler version (if available)
	InJob     bool   // Whether we're currently inside a scheduled job
	Available bool   // Whether scheduler is available for job submission
}

// Scheduler defines the interface for job schedulers
type Scheduler interface {
	// Type returns the directive dialect this scheduler speaks
	Type() Dialect

	// IsAvailable checks if the scheduler is available and we're not already in a job
	IsAvailable() bool

	// GetInfo returns information about the scheduler
	GetInfo() *SchedulerInfo

	// Render maps a validated JobSpec to the complete batch script text.
	// Rendering is deterministic: the same spec always yields the same bytes.
	Render(spec *JobSpec) (string, error)

	// Submit writes the rendered script to spec.ScriptPath and, unless the
	// spec is a dry run, invokes the submit binary and returns the job ID.
	// A dry run returns an empty job ID and leaves the script on disk.
	Submit(spec *JobSpec) (string, error)

	// SetJobIDPattern overrides the pattern used to extract the job ID from
	// the submit command's output. Clusters with nonstandard wording can
	// supply their own extraction rule.
	SetJobIDPattern(re *regexp.Regexp)
}

// New creates a scheduler for the given dialect using the submit binary from PATH
func New(dialect Dialect) (Scheduler, error) {
	return NewWithBinary(dialect, "")
}

// NewWithBinary creates a scheduler for the given dialect using an explicit
// submit binary path. An empty path falls back to PATH lookup.
func NewWithBinary(dialect Dialect, bin string) (Scheduler, error) {
	switch dialect {
	case DialectPBS:
		return NewPbsSchedulerWithBinary(bin)
	case DialectSGE:
		return NewSgeSchedulerWithBinary(bin)
	case DialectSLURM:
		return NewSlurmSchedulerWithBinary(bin)
	default:
		return nil, ErrUnknownDialect
	}
}

// NewRenderer creates a scheduler for the given dialect without resolving its
// submit binary. Rendering and dry runs work on any machine; Submit fails
// until a binary is resolved.
func NewRenderer(dialect Dialect) (Scheduler, error) {
	switch dialect {
	case DialectPBS:
		return newPbsScheduler(), nil
	case DialectSGE:
		return newSgeScheduler(), nil
	case DialectSLURM:
		return newSlurmScheduler(), nil
	default:
		return nil, ErrUnknownDialect
	}
}

// DetectScheduler attempts to detect and return an available scheduler.
// Returns ErrSchedulerNotFound if no submit binary is present, or
// ErrSchedulerNotAvailable if one is present but submission is disabled
// (e.g., we're already inside a job).
func DetectScheduler() (Scheduler, error) {
	sched, err := DetectSchedulerWithBinary("")
	if err != nil {
		return nil, err
	}
	if !sched.IsAvailable() {
		return nil, ErrSchedulerNotAvailable
	}
	return sched, nil
}

// DetectSchedulerWithBinary attempts to initialize a scheduler using a preferred
// submit binary path. If preferredBin is empty, detection falls back to PATH
// discovery. The returned scheduler may be unavailable; use DetectScheduler to
// require availability.
func DetectSchedulerWithBinary(preferredBin string) (Scheduler, error) {
	if preferredBin != "" {
		switch filepath.Base(preferredBin) {
		case "sbatch":
			return NewSlurmSchedulerWithBinary(preferredBin)
		case "qsub":
			// qsub is shared between PBS and SGE; SGE clusters export SGE_ROOT
			if _, ok := os.LookupEnv("SGE_ROOT"); ok {
				return NewSgeSchedulerWithBinary(preferredBin)
			}
			return NewPbsSchedulerWithBinary(preferredBin)
		default:
			return nil, ErrUnknownDialect
		}
	}

	switch DetectType() {
	case DialectSLURM:
		return NewSlurmScheduler()
	case DialectSGE:
		return NewSgeScheduler()
	case DialectPBS:
		return NewPbsScheduler()
	}

	return nil, ErrSchedulerNotFound
}

// DetectType returns the dialect of the scheduler available on the system
// without initializing it.
func DetectType() Dialect {
	// Check for SLURM (sbatch)
	if _, err := exec.LookPath("sbatch"); err == nil {
		return DialectSLURM
	}

	// qsub serves both PBS and SGE; SGE installs always set SGE_ROOT
	if _, err := exec.LookPath("qsub"); err == nil {
		if _, ok := os.LookupEnv("SGE_ROOT"); ok {
			return DialectSGE
		}
		return DialectPBS
	}

	return DialectUnknown
}

// IsInsideJob checks if we're currently running inside a scheduler job.
// This is useful to avoid nested job submission.
func IsInsideJob() bool {
	// Check SLURM
	if _, ok := os.LookupEnv("SLURM_JOB_ID"); ok {
		return true
	}
	// Check PBS/Torque
	if _, ok := os.LookupEnv("PBS_JOBID"); ok {
		return true
	}
	// Check SGE
	if _, ok := os.LookupEnv("JOB_ID"); ok {
		return true
	}
	return false
}

// lookupBinary resolves a submit binary, either from an explicit path or PATH.
// Shared by all scheduler constructors.
func lookupBinary(explicit, name string) (string, error) {
	if explicit == "" {
		binPath, err := exec.LookPath(name)
		if err != nil {
			return "", errWithCause(ErrSchedulerNotFound, err)
		}
		return binPath, nil
	}

	binPath := explicit
	if absPath, err := filepath.Abs(binPath); err == nil {
		binPath = absPath
	}
	info, err := os.Stat(binPath)
	if err != nil {
		return "", errWithCause(ErrSchedulerNotFound, err)
	}
	if info.IsDir() {
		return "", errWithCausef(ErrSchedulerNotFound, "%s is a directory", binPath)
	}
	return binPath, nil
}
