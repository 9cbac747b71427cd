// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package util

import (
	"strings"
)

// Errors is simply a wrapper for an array of errors. Useful for aggregating
// validation failures so that all of them are reported at once.
type Errors []error

// Append adds err to the list if it is not nil.
func (e *Errors) Append(err error) {
	if err != nil {
		*e = append(*e, err)
	}
}

// String returns a string representation for the Errors type.
func (e Errors) String() string {
	if len(e) == 0 {
		return ""
	}

	out := make([]string, len(e))
	for i := range e {
		out[i] = e[i].Error()
	}

	return strings.Join(out, ", ")
}

// Error implements the error interface.
func (e Errors) Error() string {
	return e.String()
}

// ErrorOrNil returns nil when no errors were collected, and the list itself otherwise.
func (e Errors) ErrorOrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
