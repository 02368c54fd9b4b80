package scheduler

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var cmdAssignRe = regexp.MustCompile(`^cmd\[(\d+)\]=`)

// CommandsFromScript parses a generated array script and returns its per-task
// commands keyed by 1-based task index, exactly as they appear in the cmd[i]
// assignment lines. This recovers the command that a given array task ran.
func CommandsFromScript(scriptPath string) (map[int]string, error) {
	file, err := os.Open(scriptPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, scriptPath)
		}
		return nil, err
	}
	defer file.Close()

	commands := make(map[int]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		m := cmdAssignRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		value := line[len(m[0]):]
		commands[index] = strings.Trim(value, `"`)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading script: %w", err)
	}

	return commands, nil
}
