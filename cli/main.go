package main

import (
	"os"

	"github.com/kubegen-sh/kubegen/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
