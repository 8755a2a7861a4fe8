package release

import (
	"errors"
	"fmt"
)

// Stage names a pipeline step.
type Stage string

const (
	StageParse     Stage = "parse"
	StageUpload    Stage = "upload"
	StageChangelog Stage = "changelog"
	StageTemplate  Stage = "template"
	StageNotify    Stage = "notify"
)

// Process exit codes, one per failing stage.
const (
	ExitOK        = 0
	ExitUpload    = 1
	ExitEmail     = 2
	ExitTemplate  = 3
	ExitChangelog = 4
	ExitParse     = 5
	// ExitUsage covers bad flags and configuration found before the run starts.
	ExitUsage = 64
)

var exitCodes = map[Stage]int{
	StageParse:     ExitParse,
	StageUpload:    ExitUpload,
	StageChangelog: ExitChangelog,
	StageTemplate:  ExitTemplate,
	StageNotify:    ExitEmail,
}

// StageError is the first failure of a run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ExitCode maps err to the process exit code. Errors that did not come
// from a stage are usage errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var se *StageError
	if errors.As(err, &se) {
		if code, ok := exitCodes[se.Stage]; ok {
			return code
		}
	}
	return ExitUsage
}
