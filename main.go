package main

import "github.com/YeoLab/qtools/cmd"

func main() {
	cmd.Execute()
}
