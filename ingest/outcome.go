package ingest

import (
	"fmt"

	"github.com/justapithecus/hdrframe/types"
)

// Process exit codes, one per outcome status.
const (
	ExitCodeCompleted     = 0
	ExitCodeDecodeError   = 1
	ExitCodeTruncated     = 2
	ExitCodePolicyFailure = 3
	ExitCodeReadError     = 4
)

// ExitCode maps an outcome status to a process exit code.
// Unknown statuses map to ExitCodeReadError.
func ExitCode(status types.OutcomeStatus) int {
	switch status {
	case types.OutcomeCompleted:
		return ExitCodeCompleted
	case types.OutcomeDecodeError:
		return ExitCodeDecodeError
	case types.OutcomeTruncated:
		return ExitCodeTruncated
	case types.OutcomePolicyFailure:
		return ExitCodePolicyFailure
	default:
		return ExitCodeReadError
	}
}

// DetermineOutcome classifies the error returned by IngestionEngine.Run.
// Byte counts are left for the caller to fill in.
func DetermineOutcome(err error) *types.Outcome {
	switch {
	case err == nil:
		return &types.Outcome{
			Status:  types.OutcomeCompleted,
			Message: "stream completed",
		}
	case IsDecodeError(err):
		return &types.Outcome{
			Status:  types.OutcomeDecodeError,
			Message: err.Error(),
		}
	case IsTruncatedError(err):
		return &types.Outcome{
			Status:  types.OutcomeTruncated,
			Message: err.Error(),
		}
	case IsPolicyError(err):
		return &types.Outcome{
			Status:  types.OutcomePolicyFailure,
			Message: err.Error(),
		}
	case IsCanceledError(err):
		return &types.Outcome{
			Status:  types.OutcomeReadError,
			Message: fmt.Sprintf("stream canceled: %v", err),
		}
	default:
		return &types.Outcome{
			Status:  types.OutcomeReadError,
			Message: err.Error(),
		}
	}
}
