package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// MaxArrayTasks is the largest task range a single array job may carry.
// Larger command lists are split into numbered sibling jobs before submission.
const MaxArrayTasks = 500

// Resource is an extra scheduler directive pair, e.g. {"-l", "h_vmem=16G"}.
// Resources are emitted as directive lines after the standard block, in order.
type Resource struct {
	Flag  string
	Value string
}

// JobSpec describes one unit of work to render and submit.
// A JobSpec is constructed once by NewJobSpec and not mutated afterwards;
// the rendered script and the scheduler-assigned job ID are outputs.
type JobSpec struct {
	Commands []string // Shell commands, one per line (or per array task)
	JobName  string   // Name used for the scheduler and default file naming

	Walltime string // "HH:MM:SS" wall-clock limit
	Nodes    int    // Number of nodes
	Ppn      int    // Processors per node (typical ceiling is 16, not enforced)
	Queue    string // Target queue/partition
	Account  string // Billing/ACL account

	ScriptPath string // Where the rendered script is written
	StdoutPath string // Job standard output
	StderrPath string // Job standard error

	Array      bool // Requested array submission
	MaxRunning int  // Max concurrently running array tasks (0 = no cap)
	ChunkSize  int  // Group this many commands per serial sub-job (0 = off)

	SubmitJob bool // false = dry run: write the script, skip submission

	ExtraResources []Resource // Additional directive lines
}

// JobDefaults holds the default resource parameters applied by NewJobSpec
type JobDefaults struct {
	Walltime string
	Nodes    int
	Ppn      int
	Queue    string
	Account  string
}

var (
	jobDefaults = JobDefaults{
		Walltime: "00:30:00",
		Nodes:    1,
		Ppn:      1,
		Queue:    "home",
		Account:  "yeo-group",
	}
	jobDefaultsMu sync.RWMutex
)

// GetJobDefaults returns the current job defaults
func GetJobDefaults() JobDefaults {
	jobDefaultsMu.RLock()
	defer jobDefaultsMu.RUnlock()
	return jobDefaults
}

// SetJobDefaults replaces the job defaults (e.g., from a config file)
func SetJobDefaults(d JobDefaults) {
	jobDefaultsMu.Lock()
	defer jobDefaultsMu.Unlock()
	jobDefaults = d
}

// Option customizes a JobSpec during construction
type Option func(*JobSpec)

// WithWalltime sets the wall-clock limit, "HH:MM:SS"
func WithWalltime(walltime string) Option {
	return func(s *JobSpec) { s.Walltime = walltime }
}

// WithNodes sets the node count
func WithNodes(nodes int) Option {
	return func(s *JobSpec) { s.Nodes = nodes }
}

// WithPpn sets processors per node
func WithPpn(ppn int) Option {
	return func(s *JobSpec) { s.Ppn = ppn }
}

// WithQueue sets the target queue
func WithQueue(queue string) Option {
	return func(s *JobSpec) { s.Queue = queue }
}

// WithAccount sets the billing account
func WithAccount(account string) Option {
	return func(s *JobSpec) { s.Account = account }
}

// WithArray requests array-job rendering. A single-command spec degrades to a
// plain job regardless of this option.
func WithArray() Option {
	return func(s *JobSpec) { s.Array = true }
}

// WithMaxRunning caps the number of concurrently running array tasks
func WithMaxRunning(n int) Option {
	return func(s *JobSpec) { s.MaxRunning = n }
}

// WithChunkSize groups commands into serial sub-jobs of this size
func WithChunkSize(n int) Option {
	return func(s *JobSpec) { s.ChunkSize = n }
}

// WithScriptPath overrides the derived script path
func WithScriptPath(path string) Option {
	return func(s *JobSpec) { s.ScriptPath = path }
}

// WithStdoutPath overrides the derived stdout path
func WithStdoutPath(path string) Option {
	return func(s *JobSpec) { s.StdoutPath = path }
}

// WithStderrPath overrides the derived stderr path
func WithStderrPath(path string) Option {
	return func(s *JobSpec) { s.StderrPath = path }
}

// WithoutSubmit marks the spec as a dry run: the script is written but the
// submit binary is never invoked.
func WithoutSubmit() Option {
	return func(s *JobSpec) { s.SubmitJob = false }
}

// WithResource appends an extra directive line, e.g. ("-l", "h_vmem=16G")
func WithResource(flag, value string) Option {
	return func(s *JobSpec) {
		s.ExtraResources = append(s.ExtraResources, Resource{Flag: flag, Value: value})
	}
}

// NewJobSpec builds and validates a JobSpec. Unset resource parameters take
// the package defaults; unset paths are derived from jobName in the current
// working directory (script: name.sh, stdout: name.out, stderr: name.err).
func NewJobSpec(commands []string, jobName string, opts ...Option) (*JobSpec, error) {
	defaults := GetJobDefaults()

	spec := &JobSpec{
		Commands:  commands,
		JobName:   jobName,
		Walltime:  defaults.Walltime,
		Nodes:     defaults.Nodes,
		Ppn:       defaults.Ppn,
		Queue:     defaults.Queue,
		Account:   defaults.Account,
		SubmitJob: true,
	}

	for _, opt := range opts {
		opt(spec)
	}

	if spec.ScriptPath == "" {
		spec.ScriptPath = spec.JobName + ".sh"
	}
	if spec.StdoutPath == "" {
		spec.StdoutPath = spec.JobName + ".out"
	}
	if spec.StderrPath == "" {
		spec.StderrPath = spec.JobName + ".err"
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// IsArray reports whether this spec renders as an array job. An array request
// with a single command degrades to a plain job.
func (s *JobSpec) IsArray() bool {
	return s.Array && len(s.Commands) > 1
}

// NumTasks returns the number of array tasks (1 for a plain job)
func (s *JobSpec) NumTasks() int {
	if s.IsArray() {
		return len(s.Commands)
	}
	return 1
}

// Validate rejects malformed specs before any file I/O
func (s *JobSpec) Validate() error {
	if len(s.Commands) == 0 {
		return NewValidationError("commands", s.Commands, "at least one command is required")
	}
	for i, cmd := range s.Commands {
		if strings.TrimSpace(cmd) == "" {
			return NewValidationError("commands", i, "command must be a non-empty string")
		}
	}
	if strings.TrimSpace(s.JobName) == "" {
		return NewValidationError("job_name", s.JobName, "job name must be non-empty")
	}
	if _, err := ParseWalltime(s.Walltime); err != nil {
		return NewValidationError("walltime", s.Walltime, err.Error())
	}
	if s.Nodes <= 0 {
		return NewValidationError("nodes", s.Nodes, "must be a positive integer")
	}
	if s.Ppn <= 0 {
		return NewValidationError("ppn", s.Ppn, "must be a positive integer")
	}
	if strings.TrimSpace(s.Queue) == "" {
		return NewValidationError("queue", s.Queue, "queue must be non-empty")
	}
	if strings.TrimSpace(s.Account) == "" {
		return NewValidationError("account", s.Account, "account must be non-empty")
	}
	if s.MaxRunning < 0 {
		return NewValidationError("max_running", s.MaxRunning, "must not be negative")
	}
	if s.ChunkSize < 0 {
		return NewValidationError("chunksize", s.ChunkSize, "must not be negative")
	}
	return nil
}

// WalltimeParts holds a parsed wall-clock limit
type WalltimeParts struct {
	Hours   int
	Minutes int
	Seconds int
}

// String renders the walltime with two-digit components ("2:0:0" → "02:00:00")
func (w WalltimeParts) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", w.Hours, w.Minutes, w.Seconds)
}

// ParseWalltime parses an "HH:MM:SS" string with non-negative integer components
func ParseWalltime(s string) (WalltimeParts, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return WalltimeParts{}, ErrInvalidWalltime
	}

	values := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return WalltimeParts{}, errWithCausef(ErrInvalidWalltime, "bad component %q", part)
		}
		values[i] = n
	}

	return WalltimeParts{Hours: values[0], Minutes: values[1], Seconds: values[2]}, nil
}

// derive creates a numbered sibling spec sharing this spec's parameters.
// Used when splitting oversized arrays and chunked serial submissions.
func (s *JobSpec) derive(commands []string, index int, array bool) *JobSpec {
	sub := *s
	sub.Commands = commands
	sub.JobName = fmt.Sprintf("%s%d", s.JobName, index)
	sub.Array = array
	sub.ChunkSize = 0
	sub.ScriptPath = numberedPath(s.ScriptPath, ".sh", index)
	sub.StdoutPath = numberedPath(s.StdoutPath, ".out", index)
	sub.StderrPath = numberedPath(s.StderrPath, ".err", index)
	return &sub
}

// splitArray breaks an oversized array spec into chunks of at most MaxArrayTasks
func (s *JobSpec) splitArray() []*JobSpec {
	var subs []*JobSpec
	for i := 0; i*MaxArrayTasks < len(s.Commands); i++ {
		start := i * MaxArrayTasks
		stop := min(start+MaxArrayTasks, len(s.Commands))
		subs = append(subs, s.derive(s.Commands[start:stop], i+1, true))
	}
	return subs
}

// splitChunks groups commands into serial sub-jobs of ChunkSize commands each
func (s *JobSpec) splitChunks() []*JobSpec {
	var subs []*JobSpec
	for i := 0; i*s.ChunkSize < len(s.Commands); i++ {
		start := i * s.ChunkSize
		stop := min(start+s.ChunkSize, len(s.Commands))
		subs = append(subs, s.derive(s.Commands[start:stop], i+1, false))
	}
	return subs
}

// numberedPath inserts an index before the path suffix: "job.sh" → "job2.sh"
func numberedPath(path, suffix string, index int) string {
	if strings.HasSuffix(path, suffix) {
		return fmt.Sprintf("%s%d%s", strings.TrimSuffix(path, suffix), index, suffix)
	}
	return fmt.Sprintf("%s%d", path, index)
}
