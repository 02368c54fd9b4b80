package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/YeoLab/qtools/internal/config"
	"github.com/YeoLab/qtools/internal/scheduler"
	"github.com/YeoLab/qtools/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	submitName       string
	submitType       string
	submitWalltime   string
	submitNodes      int
	submitPpn        int
	submitQueue      string
	submitAccount    string
	submitArray      bool
	submitMaxRunning int
	submitChunkSize  int
	submitShPath     string
	submitOutPath    string
	submitErrPath    string
	submitNoSubmit   bool
	submitFromFile   string
	submitResources  []string
)

var submitCmd = &cobra.Command{
	Use:   "submit -n NAME [flags] [-- command...]",
	Short: "Render a batch script and submit it to the cluster scheduler",
	Long: `Render a scheduler batch script for one or more shell commands and
submit it with the scheduler's own command (qsub/sbatch).

Commands come from the arguments after "--", or one per line from a file
given with --from-file. With --array, each command becomes one task of an
array job; otherwise the commands run serially in a single job.

With --no-submit (or the global --local flag) the script is written but not
submitted.`,
	Example: `  qtools submit -n intersect -- "bedtools intersect a.bed b.bed"
  qtools submit -n conservation --array --walltime 2:00:00 --from-file cmds.txt
  qtools submit -n align --type SGE --ppn 4 --resource "-l h_vmem=16G" -- "bwa mem ref.fa r.fq"`,
	SilenceUsage: true,
	RunE:         runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVarP(&submitName, "name", "n", "", "Job name (required)")
	submitCmd.Flags().StringVarP(&submitType, "type", "t", "", "Scheduler dialect: PBS, SGE, or SLURM (default: auto-detect)")
	submitCmd.Flags().StringVarP(&submitWalltime, "walltime", "w", "", "Wall-clock limit, HH:MM:SS")
	submitCmd.Flags().IntVar(&submitNodes, "nodes", 0, "Number of nodes")
	submitCmd.Flags().IntVar(&submitPpn, "ppn", 0, "Processors per node (16 is a typical per-node ceiling)")
	submitCmd.Flags().StringVar(&submitQueue, "queue", "", "Target queue/partition")
	submitCmd.Flags().StringVar(&submitAccount, "account", "", "Billing/ACL account")
	submitCmd.Flags().BoolVarP(&submitArray, "array", "a", false, "Submit commands as an array job, one task per command")
	submitCmd.Flags().IntVar(&submitMaxRunning, "max-running", 0, "Max concurrently running array tasks")
	submitCmd.Flags().IntVar(&submitChunkSize, "chunksize", 0, "Group commands into serial sub-jobs of this size")
	submitCmd.Flags().StringVar(&submitShPath, "sh", "", "Script path (default: NAME.sh)")
	submitCmd.Flags().StringVar(&submitOutPath, "out", "", "Stdout path (default: NAME.out)")
	submitCmd.Flags().StringVar(&submitErrPath, "err", "", "Stderr path (default: NAME.err)")
	submitCmd.Flags().BoolVar(&submitNoSubmit, "no-submit", false, "Write the script without submitting it")
	submitCmd.Flags().StringVarP(&submitFromFile, "from-file", "f", "", "Read commands from a file, one per line")
	submitCmd.Flags().StringArrayVar(&submitResources, "resource", nil, "Extra scheduler directive, e.g. \"-l h_vmem=16G\" (repeatable)")

	submitCmd.MarkFlagRequired("name")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	logChangedFlags(cmd.Flags())

	commands := args
	if submitFromFile != "" {
		fileCommands, err := readCommandFile(submitFromFile)
		if err != nil {
			return err
		}
		commands = append(commands, fileCommands...)
	}

	opts := buildSubmitOptions()
	spec, err := scheduler.NewJobSpec(commands, submitName, opts...)
	if err != nil {
		return err
	}

	sched, err := submitScheduler(!spec.SubmitJob)
	if err != nil {
		return err
	}

	utils.PrintDebug("Rendering %s script for %d command(s)", sched.Type(), len(spec.Commands))
	jobIDs, err := scheduler.SubmitAll(sched, spec)
	if err != nil {
		return err
	}

	if !spec.SubmitJob {
		utils.PrintMessage("Wrote %s (not submitted)", utils.StylePath(spec.ScriptPath))
		return nil
	}

	for _, jobID := range jobIDs {
		utils.PrintSuccess("Submitted job %s with ID %s",
			utils.StyleName(submitName), utils.StyleNumber(jobID))
	}
	return nil
}

// buildSubmitOptions translates command-line flags into JobSpec options.
// Flags left at their zero value fall through to the configured defaults.
func buildSubmitOptions() []scheduler.Option {
	var opts []scheduler.Option
	if submitWalltime != "" {
		opts = append(opts, scheduler.WithWalltime(submitWalltime))
	}
	if submitNodes > 0 {
		opts = append(opts, scheduler.WithNodes(submitNodes))
	}
	if submitPpn > 0 {
		opts = append(opts, scheduler.WithPpn(submitPpn))
	}
	if submitQueue != "" {
		opts = append(opts, scheduler.WithQueue(submitQueue))
	}
	if submitAccount != "" {
		opts = append(opts, scheduler.WithAccount(submitAccount))
	}
	if submitArray {
		opts = append(opts, scheduler.WithArray())
	}
	if submitMaxRunning > 0 {
		opts = append(opts, scheduler.WithMaxRunning(submitMaxRunning))
	}
	if submitChunkSize > 0 {
		opts = append(opts, scheduler.WithChunkSize(submitChunkSize))
	}
	if submitShPath != "" {
		opts = append(opts, scheduler.WithScriptPath(submitShPath))
	}
	if submitOutPath != "" {
		opts = append(opts, scheduler.WithStdoutPath(submitOutPath))
	}
	if submitErrPath != "" {
		opts = append(opts, scheduler.WithStderrPath(submitErrPath))
	}
	if submitNoSubmit || !config.Global.SubmitJob {
		opts = append(opts, scheduler.WithoutSubmit())
	}
	for _, res := range submitResources {
		res = strings.TrimSpace(res)
		flag, value, found := strings.Cut(res, " ")
		if !found {
			// bare value, e.g. "bigmem": treat as a -l resource
			flag, value = "-l", res
		}
		opts = append(opts, scheduler.WithResource(flag, strings.TrimSpace(value)))
	}
	return opts
}

// submitScheduler resolves the scheduler for the submit command: the --type
// flag wins, then the configured/active scheduler, then auto-detection.
// Dry runs fall back to a render-only scheduler when no submit binary is
// installed, so scripts can still be written on machines without a cluster.
func submitScheduler(dryRun bool) (scheduler.Scheduler, error) {
	if submitType != "" {
		dialect := scheduler.Dialect(strings.ToUpper(submitType))
		sched, err := scheduler.NewWithBinary(dialect, config.Global.SchedulerBin)
		if err != nil && dryRun {
			return scheduler.NewRenderer(dialect)
		}
		return sched, err
	}
	if sched := scheduler.ActiveScheduler(); sched != nil {
		return sched, nil
	}
	sched, err := resolveScheduler()
	if err != nil && dryRun {
		return scheduler.NewRenderer(scheduler.DialectPBS)
	}
	return sched, err
}

// logChangedFlags prints the flags the user set, for debug runs
func logChangedFlags(flags *pflag.FlagSet) {
	flags.Visit(func(f *pflag.Flag) {
		utils.PrintDebug("Flag --%s=%s", f.Name, f.Value.String())
	})
}

// readCommandFile reads commands from a file, one per line, skipping blanks
// and comment lines.
func readCommandFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read command file: %w", err)
	}
	defer file.Close()

	var commands []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		commands = append(commands, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read command file: %w", err)
	}
	return commands, nil
}
