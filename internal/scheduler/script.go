package scheduler

import (
	"fmt"
	"strings"
)

// renderScript assembles the final script text from the dialect pieces.
//
// Layout: shebang, directive block, a cd line restoring the submission-time
// working directory, then either the verbatim command lines (plain job) or a
// 1-based cmd[i] assignment per task followed by a single eval dispatch line
// keyed on the scheduler's runtime task-index variable (array job).
//
// Output is a pure function of the spec: no timestamps, no randomness.
func renderScript(directives []string, workdirEnv, taskIndexEnv string, spec *JobSpec) string {
	var b strings.Builder

	b.WriteString("#!/bin/bash\n")
	for _, d := range directives {
		b.WriteString(d)
		b.WriteByte('\n')
	}

	b.WriteString("\n# Return to the directory the job was submitted from\n")
	fmt.Fprintf(&b, "cd $%s\n\n", workdirEnv)

	if spec.IsArray() {
		for i, cmd := range spec.Commands {
			fmt.Fprintf(&b, "cmd[%d]=\"%s\"\n", i+1, cmd)
		}
		fmt.Fprintf(&b, "eval ${cmd[$%s]}\n", taskIndexEnv)
	} else {
		for _, cmd := range spec.Commands {
			b.WriteString(cmd)
			b.WriteByte('\n')
		}
	}

	return b.String()
}

// directiveList accumulates scheduler directive lines sharing one prefix
type directiveList struct {
	prefix string
	lines  []string
}

func newDirectiveList(prefix string) *directiveList {
	return &directiveList{prefix: prefix}
}

// add appends one directive line, e.g. add("-N %s", name) → "#PBS -N name"
func (d *directiveList) add(format string, a ...any) {
	d.lines = append(d.lines, d.prefix+" "+fmt.Sprintf(format, a...))
}

// addExtras appends the spec's extra resource directives in order
func (d *directiveList) addExtras(resources []Resource) {
	for _, r := range resources {
		d.add("%s %s", r.Flag, r.Value)
	}
}

// taskRange formats an inclusive 1..n range with an optional concurrency cap,
// the form shared by PBS -t and SLURM --array.
func taskRange(n, maxRunning int) string {
	if maxRunning > 0 {
		return fmt.Sprintf("1-%d%%%d", n, maxRunning)
	}
	return fmt.Sprintf("1-%d", n)
}
