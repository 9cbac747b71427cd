// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azurekeyvault

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/services/keyvault/v7.0/keyvault"
	"github.com/Azure/keyvault-getsecret/tokenutil"
	"github.com/Azure/keyvault-getsecret/vault"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// bundleClient is the subset of keyvault.BaseClient used to read secrets.
type bundleClient interface {
	GetSecret(ctx context.Context, vaultBaseURL string, secretName string, secretVersion string) (keyvault.SecretBundle, error)
}

// AutorestSecretFetcher gets a secret from Azure keyvault with the autorest keyvault client,
// authenticated using MSI or the AZURE_* environment.
type AutorestSecretFetcher struct {
	VaultURL       string
	SecretName     string
	SecretVersion  string
	MSIClientID    string
	AADResourceURL string

	client bundleClient
}

var _ vault.SecretFetcher = &AutorestSecretFetcher{}

// FetchSecret gets the secret as defined by the fetcher from Azure key vault.
func (fetcher *AutorestSecretFetcher) FetchSecret(ctx context.Context) (*vault.Secret, error) {
	if fetcher == nil {
		return nil, vault.NewError(vault.ErrInvalidConfig, errors.New("secret config is required"))
	}

	if fetcher.VaultURL == "" ||
		fetcher.SecretName == "" ||
		fetcher.AADResourceURL == "" {
		return nil, vault.NewError(vault.ErrInvalidConfig, errors.New("missing required properties VaultURL, SecretName, and AADResourceURL"))
	}

	client := fetcher.client
	if client == nil {
		var err error
		client, err = newKeyVaultClient(fetcher.MSIClientID, fetcher.AADResourceURL)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create azure key vault client")
		}
	}

	logrus.WithFields(logrus.Fields{
		"vault":   fetcher.VaultURL,
		"secret":  fetcher.SecretName,
		"version": fetcher.SecretVersion,
	}).Debug("Fetching secret with the autorest client")

	secretBundle, err := client.GetSecret(ctx, fetcher.VaultURL, fetcher.SecretName, fetcher.SecretVersion)
	if err != nil {
		return nil, errors.Wrap(classifyError(err), "failed to fetch secret value from azure key vault client")
	}

	if secretBundle.Value == nil {
		return nil, vault.NewError(vault.ErrSecretNotFound, fmt.Errorf("secret %s has no value", fetcher.SecretName))
	}

	secret := &vault.Secret{
		Name:        fetcher.SecretName,
		Version:     fetcher.SecretVersion,
		ContentType: stringValue(secretBundle.ContentType),
		Value:       *secretBundle.Value,
	}
	if secretBundle.Attributes != nil {
		secret.Enabled = secretBundle.Attributes.Enabled
	}
	if secretBundle.ID != nil {
		setSecretID(secret, *secretBundle.ID)
	}
	return secret, nil
}

// newKeyVaultClient creates a new keyvault client
func newKeyVaultClient(clientID, vaultAADResourceURL string) (bundleClient, error) {
	authorizer, err := tokenutil.NewAuthorizer(vaultAADResourceURL, clientID)
	if err != nil {
		return nil, vault.NewError(vault.ErrAuthentication, err)
	}
	keyClient := keyvault.New()
	keyClient.Authorizer = authorizer
	return &keyClient, nil
}
