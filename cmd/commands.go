package cmd

import (
	"fmt"
	"sort"

	"github.com/YeoLab/qtools/internal/scheduler"
	"github.com/YeoLab/qtools/internal/utils"
	"github.com/spf13/cobra"
)

var commandsCmd = &cobra.Command{
	Use:   "commands <script>",
	Short: "List the per-task commands of a generated array-job script",
	Long: `Parse an array-job script written by qtools and print each task's
command, keyed by its 1-based task index. Useful for working out which
command a failed array task was running.`,
	Example:      `  qtools commands conservation.sh`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runCommands,
}

func init() {
	rootCmd.AddCommand(commandsCmd)
}

func runCommands(cmd *cobra.Command, args []string) error {
	commands, err := scheduler.CommandsFromScript(args[0])
	if err != nil {
		return err
	}
	if len(commands) == 0 {
		utils.PrintMessage("No array task commands found in %s", utils.StylePath(args[0]))
		return nil
	}

	indices := make([]int, 0, len(commands))
	for index := range commands {
		indices = append(indices, index)
	}
	sort.Ints(indices)

	for _, index := range indices {
		fmt.Printf("%s\t%s\n", utils.StyleNumber(index), commands[index])
	}
	return nil
}
