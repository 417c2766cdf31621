// Package faults defines the failure taxonomy shared by every pipeline
// stage. Stages tag errors with one of the sentinel markers below; the
// orchestrator and CLI classify with errors.Is rather than inspecting
// messages.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks bad, missing, or inconsistent inputs. Nothing
	// was processed when a validation error is returned.
	ErrValidation = errors.New("validation error")
	// ErrProcessing marks an engine invocation that failed or produced
	// unusable output.
	ErrProcessing = errors.New("processing error")
	// ErrOutput marks an artifact that could not be persisted.
	ErrOutput = errors.New("output error")
)

// Exit codes surfaced by the CLI, one per failure kind.
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitProcessing = 2
	ExitOutput     = 3
)

// Wrap builds an error that includes stage context while tagging it with the
// provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrProcessing
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Validation tags an error as a validation failure.
func Validation(stage, operation, message string, err error) error {
	return Wrap(ErrValidation, stage, operation, message, err)
}

// Processing tags an error as a processing failure.
func Processing(stage, operation, message string, err error) error {
	return Wrap(ErrProcessing, stage, operation, message, err)
}

// Output tags an error as an output failure.
func Output(stage, operation, message string, err error) error {
	return Wrap(ErrOutput, stage, operation, message, err)
}

// ExitCode maps an error to the process exit code the CLI should return.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrValidation):
		return ExitValidation
	case errors.Is(err, ErrOutput):
		return ExitOutput
	default:
		return ExitProcessing
	}
}

// Kind returns a stable label for an error's failure category, used in the
// manifest and the run ledger.
func Kind(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrOutput):
		return "output"
	default:
		return "processing"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "stage failure"
	}
	return strings.Join(parts, ": ")
}
