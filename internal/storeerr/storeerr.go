// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package storeerr holds the error taxonomy shared across the storage
// core. Every core error carries a Kind so callers can branch on
// the failure class without string-matching, plus enough context (the
// offending column/table name and the observed vs. expected type) to let
// an operator diagnose a bad write without reproducing it.
package storeerr

import "fmt"

// Kind identifies which class of failure occurred. Kinds are stable for
// programmatic matching; message text is not.
type Kind int

const (
	UnknownColumnType Kind = iota
	TypeMismatch
	EmptyTypedInsert
	InvalidFlatbuffer
	ChecksumMismatch
	NamedTableNotFoundInChunk
	NamedTableError
	ReadParquet
	InternalTypeMismatchForTimePredicate
)

func (k Kind) String() string {
	switch k {
	case UnknownColumnType:
		return "UnknownColumnType"
	case TypeMismatch:
		return "TypeMismatch"
	case EmptyTypedInsert:
		return "EmptyTypedInsert"
	case InvalidFlatbuffer:
		return "InvalidFlatbuffer"
	case ChecksumMismatch:
		return "ChecksumMismatch"
	case NamedTableNotFoundInChunk:
		return "NamedTableNotFoundInChunk"
	case NamedTableError:
		return "NamedTableError"
	case ReadParquet:
		return "ReadParquet"
	case InternalTypeMismatchForTimePredicate:
		return "InternalTypeMismatchForTimePredicate"
	default:
		return "Unknown"
	}
}

// Error is the concrete error value raised by the core. Table/Column are
// empty when not applicable to the Kind (e.g. envelope decode errors).
type Error struct {
	Kind     Kind
	Table    string
	Column   string
	Expected string // expected type/shape, for diagnostic purposes
	Observed string // what was actually seen
	Err      error  // wrapped cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Table != "" {
		msg += fmt.Sprintf(" table=%q", e.Table)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(" column=%q", e.Column)
	}
	if e.Expected != "" || e.Observed != "" {
		msg += fmt.Sprintf(" expected=%s observed=%s", e.Expected, e.Observed)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is supports errors.Is(err, storeerr.Kind) style matching against a
// sentinel-free Kind by wrapping it in a throwaway *Error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind) *Error { return &Error{Kind: kind} }

func (e *Error) WithTable(name string) *Error {
	e.Table = name
	return e
}

func (e *Error) WithColumn(name string) *Error {
	e.Column = name
	return e
}

func (e *Error) WithTypes(expected, observed string) *Error {
	e.Expected = expected
	e.Observed = observed
	return e
}

func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// Sentinel returns a fresh *Error of the given kind for use as a
// comparison target with errors.Is, e.g. errors.Is(err, storeerr.Sentinel(storeerr.TypeMismatch)).
func Sentinel(kind Kind) error { return &Error{Kind: kind} }
