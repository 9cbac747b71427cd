// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package vault

import "context"

// Secret is a single secret read from a vault.
type Secret struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	ContentType string `json:"contentType,omitempty" yaml:"contentType,omitempty"`
	Enabled     *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Value       string `json:"value" yaml:"value"`
}

// SecretFetcher is the interface that provides a secret stored in a vault.
type SecretFetcher interface {
	// FetchSecret resolves the secret, including its current value.
	FetchSecret(ctx context.Context) (*Secret, error)
}
