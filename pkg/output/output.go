// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Azure/keyvault-getsecret/vault"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Format is the rendering of a fetched secret.
type Format string

const (
	// FormatText writes only the secret value on a single line.
	FormatText Format = "text"
	// FormatJSON writes the secret and its metadata as a single line of JSON.
	FormatJSON Format = "json"
	// FormatYAML writes the secret and its metadata as a YAML document.
	FormatYAML Format = "yaml"
)

// ParseFormat returns the format named by s. An empty string selects text.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	}
	return "", fmt.Errorf("invalid output format: %s", s)
}

// Write renders secret to w.
func Write(w io.Writer, format Format, secret *vault.Secret) error {
	if secret == nil {
		return errors.New("secret is required")
	}

	switch format {
	case "", FormatText:
		_, err := fmt.Fprintln(w, secret.Value)
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return errors.Wrap(enc.Encode(secret), "failed to encode secret as json")
	case FormatYAML:
		b, err := yaml.Marshal(secret)
		if err != nil {
			return errors.Wrap(err, "failed to encode secret as yaml")
		}
		_, err = w.Write(b)
		return err
	}
	return fmt.Errorf("invalid output format: %s", format)
}
