package plink

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig matches every *ConfigError via errors.Is.
	ErrConfig = errors.New("plink: configuration error")

	// ErrParse matches every *ParseError via errors.Is.
	ErrParse = errors.New("plink: parse error")

	// ErrIndex matches every *IndexError via errors.Is.
	ErrIndex = errors.New("plink: index error")
)

// ConfigError reports an invalid combination of paths or options. It is
// raised before any file is touched.
type ConfigError struct {
	// Rule names the violated constraint, e.g. "both", "neither" or
	// "incomplete" for path resolution.
	Rule    string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("plink: invalid configuration (%s): %s", e.Rule, e.Message)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// ParseError identifies a structurally invalid row in a sidecar file.
type ParseError struct {
	File   string
	Line   int // 1-based; 0 if unknown
	Column int // 1-based; 0 if the whole row is at fault
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("plink: %s line %d column %d: %v", e.File, e.Line, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("plink: %s line %d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("plink: %s: %v", e.File, e.Err)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

func (e *ParseError) Unwrap() error { return e.Err }

// IndexError reports a selection that does not fit the genotype tensor.
type IndexError struct {
	Axis  int // -1 when the rank itself is wrong
	Index int
	Bound int
	Msg   string
}

func (e *IndexError) Error() string {
	if e.Axis < 0 {
		return "plink: " + e.Msg
	}
	if e.Msg != "" {
		return fmt.Sprintf("plink: axis %d: %s", e.Axis, e.Msg)
	}
	return fmt.Sprintf("plink: index %d out of range [0, %d) on axis %d", e.Index, e.Bound, e.Axis)
}

func (e *IndexError) Is(target error) bool { return target == ErrIndex }
