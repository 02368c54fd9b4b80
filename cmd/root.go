package cmd

import (
	"os"

	"github.com/YeoLab/qtools/internal/config"
	"github.com/YeoLab/qtools/internal/scheduler"
	"github.com/YeoLab/qtools/internal/utils"
	"github.com/spf13/cobra"
)

var (
	debugMode bool
	quietMode bool
	localMode bool
)

var rootCmd = &cobra.Command{
	Use:           "qtools",
	Short:         "qtools: generate and submit batch-job scripts to HPC cluster schedulers (PBS, SGE, SLURM).",
	Version:       config.VERSION,
	SilenceErrors: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Step 1: Load built-in defaults
		config.LoadDefaults()

		// Step 2: Initialize Viper (read config file, env vars)
		if err := config.InitViper(); err != nil {
			utils.PrintDebug("Error reading config file: %v", err)
		}

		// Step 3: Load values from Viper into Global config
		config.LoadFromViper()

		// Step 4: Apply command-line flags (highest priority)
		if debugMode {
			utils.DebugMode = true
			config.Global.Debug = true
			utils.PrintDebug("Debug mode enabled")
			utils.PrintDebug("qtools Version: %s", utils.StyleInfo(config.VERSION))
			if config.Global.SchedulerBin != "" {
				utils.PrintDebug("Scheduler Binary: %s", config.Global.SchedulerBin)
			}
			if config.Global.SchedulerType != "" {
				utils.PrintDebug("Scheduler Type: %s", config.Global.SchedulerType)
			}
		}
		if quietMode {
			utils.QuietMode = true
			config.Global.Quiet = true
		}
		if localMode {
			config.Global.SubmitJob = false
			utils.PrintDebug("Local mode enabled (job submission disabled)")
		}

		// Step 5: Push configured job defaults into the scheduler package
		scheduler.SetJobDefaults(scheduler.JobDefaults{
			Walltime: config.Global.Walltime,
			Nodes:    config.Global.Nodes,
			Ppn:      config.Global.Ppn,
			Queue:    config.Global.Queue,
			Account:  config.Global.Account,
		})

		// Step 6: Initialize the active scheduler if job submission is enabled
		if config.Global.SubmitJob {
			sched, err := resolveScheduler()
			if err == nil && sched.IsAvailable() {
				scheduler.SetActiveScheduler(sched)
				utils.PrintDebug("Scheduler initialized and available")
			} else if err != nil {
				utils.PrintDebug("Scheduler not available: %v", err)
			} else {
				utils.PrintDebug("Scheduler not available (already in a job)")
			}
		}
	},
}

// resolveScheduler picks a scheduler from config (type and/or binary override)
// or falls back to auto-detection.
func resolveScheduler() (scheduler.Scheduler, error) {
	if config.Global.SchedulerType != "" {
		return scheduler.NewWithBinary(
			scheduler.Dialect(config.Global.SchedulerType),
			config.Global.SchedulerBin)
	}
	return scheduler.DetectSchedulerWithBinary(config.Global.SchedulerBin)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		utils.PrintError("%v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "Enable debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Suppress informational output")
	rootCmd.PersistentFlags().BoolVar(&localMode, "local", false, "Disable job submission (scripts are still written)")
}
