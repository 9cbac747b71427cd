// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azurekeyvault

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/Azure/keyvault-getsecret/vault"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Backend selects the client library used to talk to key vault.
type Backend string

const (
	// BackendAzSecrets uses the azsecrets client with azidentity credentials.
	BackendAzSecrets Backend = "azsecrets"
	// BackendAutorest uses the autorest keyvault client with MSI or environment authorizers.
	BackendAutorest Backend = "autorest"
)

// ParseBackend returns the backend named by s. An empty string selects azsecrets.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case "", BackendAzSecrets:
		return BackendAzSecrets, nil
	case BackendAutorest:
		return BackendAutorest, nil
	}
	return "", fmt.Errorf("invalid backend: %s", s)
}

// AKVSecretOptions provides the options to get a secret from Azure keyvault.
type AKVSecretOptions struct {
	VaultURL      string
	SecretName    string
	SecretVersion string

	// AADResourceURL overrides the token audience derived from Cloud.
	AADResourceURL string

	MSIClientID string
	TenantID    string
	Credential  CredentialKind
	Backend     Backend
	Cloud       *Cloud
}

// NewAKVSecretFetcher creates a fetcher for the secret described by opts.
func NewAKVSecretFetcher(opts *AKVSecretOptions) (vault.SecretFetcher, error) {
	if opts == nil {
		return nil, vault.NewError(vault.ErrInvalidConfig, errors.New("secret options are required"))
	}

	vaultURL, err := NormalizeVaultURL(opts.VaultURL)
	if err != nil {
		return nil, err
	}
	if err := ValidateSecretName(opts.SecretName); err != nil {
		return nil, err
	}

	c := opts.Cloud
	if c == nil {
		c = PublicCloud
	}
	resourceURL := opts.AADResourceURL
	if resourceURL == "" {
		// Prefer the audience of the vault's own cloud, ex. vault.azure.cn
		resourceURL, err = aadResourceURL(strings.TrimPrefix(vaultURL, "https://"))
		if err != nil {
			resourceURL = c.AADResourceURL
		}
	}

	switch opts.Backend {
	case "", BackendAzSecrets:
		return &AKVSecretFetcher{
			VaultURL:      vaultURL,
			SecretName:    opts.SecretName,
			SecretVersion: opts.SecretVersion,
			MSIClientID:   opts.MSIClientID,
			TenantID:      opts.TenantID,
			Credential:    opts.Credential,
			Cloud:         c,
		}, nil
	case BackendAutorest:
		return &AutorestSecretFetcher{
			VaultURL:       vaultURL,
			SecretName:     opts.SecretName,
			SecretVersion:  opts.SecretVersion,
			MSIClientID:    opts.MSIClientID,
			AADResourceURL: resourceURL,
		}, nil
	}
	return nil, vault.NewError(vault.ErrInvalidConfig, fmt.Errorf("invalid backend: %s", opts.Backend))
}

// secretClient is the subset of *azsecrets.Client used to read secrets.
type secretClient interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// AKVSecretFetcher gets a secret from Azure keyvault with the azsecrets client.
type AKVSecretFetcher struct {
	VaultURL      string
	SecretName    string
	SecretVersion string
	MSIClientID   string
	TenantID      string
	Credential    CredentialKind
	Cloud         *Cloud

	client secretClient
}

var _ vault.SecretFetcher = &AKVSecretFetcher{}

// FetchSecret gets the secret as defined by the fetcher from Azure key vault.
func (fetcher *AKVSecretFetcher) FetchSecret(ctx context.Context) (*vault.Secret, error) {
	if fetcher == nil {
		return nil, vault.NewError(vault.ErrInvalidConfig, errors.New("secret config is required"))
	}
	if fetcher.VaultURL == "" || fetcher.SecretName == "" {
		return nil, vault.NewError(vault.ErrInvalidConfig, errors.New("missing required properties VaultURL and SecretName"))
	}

	client := fetcher.client
	if client == nil {
		var err error
		client, err = fetcher.newClient()
		if err != nil {
			return nil, errors.Wrap(err, "failed to create azure key vault client")
		}
	}

	logrus.WithFields(logrus.Fields{
		"vault":      fetcher.VaultURL,
		"secret":     fetcher.SecretName,
		"version":    fetcher.SecretVersion,
		"credential": fetcher.Credential,
	}).Debug("Fetching secret with the azsecrets client")

	resp, err := client.GetSecret(ctx, fetcher.SecretName, fetcher.SecretVersion, nil)
	if err != nil {
		return nil, errors.Wrap(classifyError(err), "failed to fetch secret value from azure key vault client")
	}

	if resp.Value == nil {
		return nil, vault.NewError(vault.ErrSecretNotFound, fmt.Errorf("secret %s has no value", fetcher.SecretName))
	}

	secret := &vault.Secret{
		Name:        fetcher.SecretName,
		Version:     fetcher.SecretVersion,
		ContentType: stringValue(resp.ContentType),
		Value:       *resp.Value,
	}
	if resp.Attributes != nil {
		secret.Enabled = resp.Attributes.Enabled
	}
	if resp.ID != nil {
		setSecretID(secret, string(*resp.ID))
	}
	return secret, nil
}

func (fetcher *AKVSecretFetcher) newClient() (secretClient, error) {
	cred, err := newCredential(credentialOptions{
		Kind:     fetcher.Credential,
		ClientID: fetcher.MSIClientID,
		TenantID: fetcher.TenantID,
		Cloud:    fetcher.Cloud,
	})
	if err != nil {
		return nil, err
	}

	var clientOptions *azsecrets.ClientOptions
	if fetcher.Cloud != nil {
		clientOptions = &azsecrets.ClientOptions{
			ClientOptions: azcore.ClientOptions{Cloud: fetcher.Cloud.Configuration},
		}
	}
	client, err := azsecrets.NewClient(fetcher.VaultURL, cred, clientOptions)
	if err != nil {
		return nil, vault.NewError(vault.ErrInvalidConfig, err)
	}
	return client, nil
}

// setSecretID records the identifier returned by the vault. The vault's
// identifier carries the resolved version even when the latest was requested.
func setSecretID(secret *vault.Secret, id string) {
	secret.ID = id
	ref, err := ParseSecretURL(id)
	if err != nil {
		logrus.Debugf("Unable to parse secret identifier %s: %v", id, err)
		return
	}
	secret.Name = ref.SecretName
	secret.Version = ref.SecretVersion
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
