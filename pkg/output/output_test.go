// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package output

import (
	"bytes"
	"testing"

	"github.com/Azure/keyvault-getsecret/vault"
	"gotest.tools/v3/assert"
)

func TestWrite(t *testing.T) {
	enabled := true
	secret := &vault.Secret{
		Name:    "mysecret",
		Version: "v1",
		ID:      "https://myvault.vault.azure.net/secrets/mysecret/v1",
		Enabled: &enabled,
		Value:   "p@ss<word>",
	}

	tests := []struct {
		format   Format
		expected string
	}{
		{FormatText, "p@ss<word>\n"},
		{"", "p@ss<word>\n"},
		{
			FormatJSON,
			`{"name":"mysecret","version":"v1","id":"https://myvault.vault.azure.net/secrets/mysecret/v1","enabled":true,"value":"p@ss<word>"}` + "\n",
		},
		{
			FormatYAML,
			"name: mysecret\nversion: v1\nid: https://myvault.vault.azure.net/secrets/mysecret/v1\nenabled: true\nvalue: p@ss<word>\n",
		},
	}

	for _, test := range tests {
		var buf bytes.Buffer
		assert.NilError(t, Write(&buf, test.format, secret))
		assert.Equal(t, buf.String(), test.expected, "format %q", test.format)
	}
}

func TestWriteErrors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorContains(t, Write(&buf, FormatText, nil), "secret is required")
	assert.ErrorContains(t, Write(&buf, "xml", &vault.Secret{Value: "v"}), "invalid output format")
	assert.Equal(t, buf.Len(), 0)
}

func TestParseFormat(t *testing.T) {
	for in, expected := range map[string]Format{"": FormatText, "text": FormatText, "json": FormatJSON, "yaml": FormatYAML} {
		actual, err := ParseFormat(in)
		assert.NilError(t, err)
		assert.Equal(t, actual, expected)
	}
	_, err := ParseFormat("table")
	assert.ErrorContains(t, err, "invalid output format: table")
}
