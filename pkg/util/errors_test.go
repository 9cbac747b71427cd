// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package util

import (
	"errors"
	"testing"
)

func TestString(t *testing.T) {
	tests := []struct {
		errors   Errors
		expected string
	}{
		{
			nil,
			"",
		},
		{
			Errors{
				errors.New("a"),
			},
			"a",
		},
		{
			Errors{
				errors.New("a"),
				errors.New("b"),
			},
			"a, b",
		},
	}

	for _, test := range tests {
		if actual := test.errors.String(); actual != test.expected {
			t.Errorf("expected %s but got %s", test.expected, actual)
		}
	}
}

func TestAppendAndErrorOrNil(t *testing.T) {
	var errs Errors
	errs.Append(nil)
	if err := errs.ErrorOrNil(); err != nil {
		t.Fatalf("expected no error but got %v", err)
	}

	errs.Append(errors.New("missing secret name"))
	errs.Append(nil)
	errs.Append(errors.New("invalid output format: xml"))

	err := errs.ErrorOrNil()
	if err == nil {
		t.Fatal("expected an error but got nil")
	}
	if expected := "missing secret name, invalid output format: xml"; err.Error() != expected {
		t.Errorf("expected %s but got %s", expected, err.Error())
	}
}
