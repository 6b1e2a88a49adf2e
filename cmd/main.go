package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/victornm/quizconv/internal/errors"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command line and maps the outcome to a process exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return errors.ExitOK
	}

	var e *errors.Error
	if !stderrors.As(err, &e) {
		fmt.Fprintf(stderr, "Error: %v\nRun '%s --help' for usage.\n", err, root.Name())
		return errors.ExitUsage
	}

	if e.Code == errors.CodeInternal {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	} else {
		fmt.Fprintf(stderr, "Error: %s\n", e.Message)
	}
	return e.ExitCode()
}
