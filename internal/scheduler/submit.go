package scheduler

import (
	"os"
	"os/exec"
	"regexp"
	"strings"
)

// Runner executes an external command and returns its combined stdout+stderr.
// The scheduler's submit binary is invoked through this seam, so tests can
// substitute a fake scheduler without spawning processes.
type Runner interface {
	Run(name string, args ...string) ([]byte, error)
}

// execRunner is the production Runner backed by os/exec
type execRunner struct{}

func (execRunner) Run(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// writeScript writes the rendered script to path, overwriting any previous
// file. The file is fully written and closed before submission is attempted;
// on write failure no submission happens.
func writeScript(spec *JobSpec, script string) error {
	if err := os.WriteFile(spec.ScriptPath, []byte(script), 0o755); err != nil {
		return NewScriptCreationError(spec.JobName, spec.ScriptPath, err)
	}
	return nil
}

// submitScript renders spec, writes it to disk, and (unless the spec is a dry
// run) invokes the submit binary and extracts the job ID from its output.
// Shared by every scheduler's Submit. A failed submission leaves the script
// on disk as diagnostic evidence.
func submitScript(sched Scheduler, runner Runner, bin string, jobIDRe *regexp.Regexp, spec *JobSpec) (string, error) {
	script, err := sched.Render(spec)
	if err != nil {
		return "", err
	}

	if err := writeScript(spec, script); err != nil {
		return "", err
	}

	if !spec.SubmitJob {
		return "", nil
	}

	if bin == "" {
		// Render-only scheduler; the script is on disk but cannot be submitted
		return "", NewSubmissionError(sched.Type(), spec.JobName, "", ErrSchedulerNotFound)
	}

	output, err := runner.Run(bin, spec.ScriptPath)
	if err != nil {
		return "", NewSubmissionError(sched.Type(), spec.JobName, string(output), err)
	}

	jobID, ok := extractJobID(jobIDRe, string(output))
	if !ok {
		return "", NewSubmissionError(sched.Type(), spec.JobName, string(output), ErrJobIDParseFailed)
	}
	return jobID, nil
}

// extractJobID applies a dialect's extraction pattern to the submit output.
// Patterns with a capture group yield the group; patterns without one must
// match the whole trimmed output (the PBS convention, where qsub prints the
// job ID and nothing else).
func extractJobID(re *regexp.Regexp, output string) (string, bool) {
	trimmed := strings.TrimSpace(output)
	if re.NumSubexp() > 0 {
		m := re.FindStringSubmatch(output)
		if len(m) < 2 {
			return "", false
		}
		return m[1], true
	}
	if trimmed == "" || !re.MatchString(trimmed) {
		return "", false
	}
	return trimmed, true
}

// SubmitAll renders and submits spec, transparently splitting it when needed:
// chunked specs become serial sub-jobs of ChunkSize commands, and array specs
// with more than MaxArrayTasks commands become numbered sibling arrays. The
// returned slice holds one job ID per submitted script, in submission order
// (empty strings for dry runs).
func SubmitAll(sched Scheduler, spec *JobSpec) ([]string, error) {
	var subs []*JobSpec
	switch {
	case spec.ChunkSize > 0 && len(spec.Commands) > spec.ChunkSize:
		subs = spec.splitChunks()
	case spec.IsArray() && len(spec.Commands) > MaxArrayTasks:
		subs = spec.splitArray()
	default:
		subs = []*JobSpec{spec}
	}

	jobIDs := make([]string, 0, len(subs))
	for _, sub := range subs {
		jobID, err := sched.Submit(sub)
		if err != nil {
			return jobIDs, err
		}
		jobIDs = append(jobIDs, jobID)
	}
	return jobIDs, nil
}
