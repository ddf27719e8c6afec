package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/temirov/configtrace/cmd/cli"
	"github.com/temirov/configtrace/internal/outcome"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the configtrace command-line application and maps the result
// onto the exit-code contract: 0 clean, 1 findings, 2 operational error.
func main() {
	executionError := cli.Execute()
	if executionError != nil && !errors.Is(executionError, outcome.ErrFindingsDetected) {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
	}
	os.Exit(outcome.ExitCodeFromError(executionError))
}
