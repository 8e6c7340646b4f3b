package main

import (
	"github.com/aleksclark/crush-subagents/internal/cmd"
)

func main() {
	cmd.Execute()
}
