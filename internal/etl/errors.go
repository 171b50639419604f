package etl

import (
	"fmt"
	"strings"
)

// MissingInputFileError is fatal: a required source file or directory is absent.
type MissingInputFileError struct {
	Path string
	Err  error
}

func (e *MissingInputFileError) Error() string {
	return fmt.Sprintf("required input missing: %s: %v", e.Path, e.Err)
}

func (e *MissingInputFileError) Unwrap() error { return e.Err }

// MissingColumnsError is fatal: one or more required columns are absent.
// All missing columns are reported together so the fix is one pass.
type MissingColumnsError struct {
	Source  string
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s is missing required columns: %s", e.Source, strings.Join(e.Missing, ", "))
}

// NoCandidateFilesError is fatal: the brokerage export directory holds no
// loadable files.
type NoCandidateFilesError struct {
	Dir string
}

func (e *NoCandidateFilesError) Error() string {
	return fmt.Sprintf("no brokerage export files found in %s", e.Dir)
}
