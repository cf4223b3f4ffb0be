package main

import (
	"fmt"
	"os"

	"gitvault/cmd/gv/commands"
	"gitvault/pkg/vcserr"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(vcserr.ExitCode(err))
	}
}
