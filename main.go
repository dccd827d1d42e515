package main

import (
	"fmt"
	"os"

	"github.com/Iron-Ham/runlet/internal/cmd"
	"github.com/Iron-Ham/runlet/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		// Task failures already show up in the summary box; only other
		// errors get an extra line here.
		if !errors.Is(err, cmd.ErrTasksFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
