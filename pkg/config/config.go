// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Azure/keyvault-getsecret/pkg/azurekeyvault"
	"github.com/Azure/keyvault-getsecret/pkg/output"
	"github.com/Azure/keyvault-getsecret/pkg/util"
	"github.com/Azure/keyvault-getsecret/vault"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Environment variables read by getsecret.
const (
	EnvVaultName     = "KEY_VAULT_NAME"
	EnvSecretName    = "SECRET_NAME"
	EnvSecretVersion = "SECRET_VERSION"
	EnvVaultURL      = "KEY_VAULT_URL"
	EnvSecretURL     = "KEY_VAULT_SECRET_URL"
	EnvCloud         = "AZURE_CLOUD"
	EnvCredential    = "AZURE_CREDENTIAL_KIND"
	EnvClientID      = "AZURE_CLIENT_ID"
	EnvTenantID      = "AZURE_TENANT_ID"
	EnvBackend       = "KEY_VAULT_BACKEND"
	EnvOutput        = "OUTPUT_FORMAT"
	EnvTimeout       = "KEY_VAULT_TIMEOUT"
	EnvDebug         = "KEY_VAULT_DEBUG"
)

// DefaultTimeout bounds a fetch when no timeout is configured.
const DefaultTimeout = 2 * time.Minute

// Config is the resolved configuration of a single secret fetch.
type Config struct {
	VaultName     string
	VaultURL      string
	SecretName    string
	SecretVersion string
	SecretURL     string

	Cloud      string
	Credential string
	ClientID   string
	TenantID   string
	Backend    string

	Output  string
	Timeout time.Duration
	Debug   bool
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	if c == nil {
		return vault.NewError(vault.ErrInvalidConfig, errors.New("config is required"))
	}

	var errs util.Errors

	if c.SecretURL != "" {
		if _, err := azurekeyvault.ParseSecretURL(c.SecretURL); err != nil {
			errs.Append(unwrapKind(err))
		}
	} else {
		switch {
		case c.VaultURL != "":
			if _, err := azurekeyvault.NormalizeVaultURL(c.VaultURL); err != nil {
				errs.Append(unwrapKind(err))
			}
		case c.VaultName != "":
			errs.Append(unwrapKind(azurekeyvault.ValidateVaultName(c.VaultName)))
		default:
			errs.Append(fmt.Errorf("missing vault: set %s, or use --vault-url or --url", EnvVaultName))
		}

		if c.SecretName == "" {
			errs.Append(fmt.Errorf("missing secret: set %s, or use --url", EnvSecretName))
		} else {
			errs.Append(unwrapKind(azurekeyvault.ValidateSecretName(c.SecretName)))
		}
	}

	if c.SecretVersion != "" && strings.ContainsAny(c.SecretVersion, "/ \t") {
		errs.Append(fmt.Errorf("invalid secret version: %q", c.SecretVersion))
	}
	if c.ClientID != "" {
		if _, err := uuid.Parse(c.ClientID); err != nil {
			errs.Append(errors.New("msi client ID is not a valid guid"))
		}
	}
	if _, err := azurekeyvault.CloudFromName(c.Cloud); err != nil {
		errs.Append(err)
	}
	if _, err := azurekeyvault.ParseCredentialKind(c.Credential); err != nil {
		errs.Append(err)
	}
	if _, err := azurekeyvault.ParseBackend(c.Backend); err != nil {
		errs.Append(err)
	}
	if _, err := output.ParseFormat(c.Output); err != nil {
		errs.Append(err)
	}
	if c.Timeout < 0 {
		errs.Append(fmt.Errorf("invalid timeout: %s", c.Timeout))
	}

	return vault.NewError(vault.ErrInvalidConfig, errs.ErrorOrNil())
}

// SecretOptions validates the configuration and resolves it into fetcher options.
// A secret URL takes precedence over the vault and secret names.
func (c *Config) SecretOptions() (*azurekeyvault.AKVSecretOptions, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cloud, err := azurekeyvault.CloudFromName(c.Cloud)
	if err != nil {
		return nil, vault.NewError(vault.ErrInvalidConfig, err)
	}
	credential, _ := azurekeyvault.ParseCredentialKind(c.Credential)
	backend, _ := azurekeyvault.ParseBackend(c.Backend)

	opts := &azurekeyvault.AKVSecretOptions{
		SecretName:    c.SecretName,
		SecretVersion: c.SecretVersion,
		MSIClientID:   c.ClientID,
		TenantID:      c.TenantID,
		Credential:    credential,
		Backend:       backend,
		Cloud:         cloud,
	}

	switch {
	case c.SecretURL != "":
		ref, err := azurekeyvault.ParseSecretURL(c.SecretURL)
		if err != nil {
			return nil, err
		}
		opts.VaultURL = ref.VaultURL
		opts.SecretName = ref.SecretName
		opts.SecretVersion = ref.SecretVersion
		opts.AADResourceURL = ref.AADResourceURL
	case c.VaultURL != "":
		opts.VaultURL, err = azurekeyvault.NormalizeVaultURL(c.VaultURL)
		if err != nil {
			return nil, err
		}
	default:
		opts.VaultURL, err = azurekeyvault.VaultURL(c.VaultName, cloud)
		if err != nil {
			return nil, err
		}
	}

	return opts, nil
}

// EffectiveTimeout returns the configured timeout, or DefaultTimeout when none is set.
func (c *Config) EffectiveTimeout() time.Duration {
	if c == nil || c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// unwrapKind strips the error kind so aggregated messages are not repeated.
func unwrapKind(err error) error {
	var kindErr *vault.Error
	if errors.As(err, &kindErr) && kindErr.Err != nil {
		return kindErr.Err
	}
	return err
}
