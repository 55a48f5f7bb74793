// Package main provides the ledger CLI: record sales per shop and shared
// expenses, and report totals over a date range.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"shopledger/internal/core"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one invocation and maps its outcome to an exit code. Usage
// mistakes, rejected input and missing records are the user's; everything
// else is a system failure.
func run(args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	defer a.close()

	root := a.rootCmd()
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}

	fmt.Fprintln(stderr, "Error:", err)
	if !a.started || errors.Is(err, core.ErrValidation) || errors.Is(err, core.ErrNotFound) {
		return exitUserError
	}
	return exitSysError
}
