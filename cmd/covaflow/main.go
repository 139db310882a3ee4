package main

import (
	"os"

	"github.com/kbukum/covaflow/cmd"
	"github.com/kbukum/covaflow/errors"
)

func main() {
	if err := cmd.NewCommand().Execute(); err != nil {
		os.Exit(errors.ExitCode(err))
	}
}
