package entity

import (
	"errors"
	"fmt"
)

var (
	ErrAccessDenied      = errors.New("access denied")
	ErrTimeout           = errors.New("timeout")
	ErrContentEmpty      = errors.New("content empty or invalid")
	ErrAnalysis          = errors.New("analysis failed")
	ErrMapping           = errors.New("mapping failed")
	ErrFillValidation    = errors.New("value mismatch after fill")
	ErrFieldNotFound     = errors.New("field not found")
	ErrStageInProgress   = errors.New("another stage is in progress")
	ErrSessionReset      = errors.New("session was reset by a new detection")
	ErrInvalidTransition = errors.New("invalid pipeline transition")
)

// StageError reports which pipeline stage failed and why.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	switch e.Stage {
	case StageAnalyze:
		return fmt.Sprintf("Stage 1 failed: %v", e.Err)
	case StageMap:
		return fmt.Sprintf("Stage 2 failed: %v", e.Err)
	case StageFill:
		return fmt.Sprintf("Fill failed: %v", e.Err)
	default:
		return fmt.Sprintf("Detection failed: %v", e.Err)
	}
}

func (e *StageError) Unwrap() error {
	return e.Err
}
