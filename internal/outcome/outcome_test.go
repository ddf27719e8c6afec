package outcome_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/configtrace/internal/outcome"
)

func TestExitCodeFromError(testInstance *testing.T) {
	testCases := []struct {
		name         string
		commandError error
		expectedCode int
	}{
		{name: "clean run", commandError: nil, expectedCode: outcome.ExitClean},
		{name: "findings sentinel", commandError: outcome.ErrFindingsDetected, expectedCode: outcome.ExitFindingsDetected},
		{name: "wrapped findings sentinel", commandError: fmt.Errorf("3 violations: %w", outcome.ErrFindingsDetected), expectedCode: outcome.ExitFindingsDetected},
		{name: "operational failure", commandError: errors.New("cannot read policy"), expectedCode: outcome.ExitOperationalError},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			require.Equal(subtest, testCase.expectedCode, outcome.ExitCodeFromError(testCase.commandError))
		})
	}
}
