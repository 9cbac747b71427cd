// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azurekeyvault

import (
	"context"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/Azure/azure-sdk-for-go/services/keyvault/v7.0/keyvault"
	"github.com/Azure/go-autorest/autorest"
	"github.com/Azure/keyvault-getsecret/vault"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

type fakeSecretClient struct {
	secrets map[string]azsecrets.Secret
	err     error

	calls []string
}

func (c *fakeSecretClient) GetSecret(_ context.Context, name string, version string, _ *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	c.calls = append(c.calls, name+"/"+version)
	if c.err != nil {
		return azsecrets.GetSecretResponse{}, c.err
	}
	secret, ok := c.secrets[name]
	if !ok {
		return azsecrets.GetSecretResponse{}, &azcore.ResponseError{StatusCode: http.StatusNotFound, ErrorCode: "SecretNotFound"}
	}
	return azsecrets.GetSecretResponse{Secret: secret}, nil
}

type fakeBundleClient struct {
	bundles map[string]keyvault.SecretBundle
	err     error

	vaultURLs []string
}

func (c *fakeBundleClient) GetSecret(_ context.Context, vaultBaseURL string, secretName string, _ string) (keyvault.SecretBundle, error) {
	c.vaultURLs = append(c.vaultURLs, vaultBaseURL)
	if c.err != nil {
		return keyvault.SecretBundle{}, c.err
	}
	bundle, ok := c.bundles[secretName]
	if !ok {
		return keyvault.SecretBundle{}, autorest.DetailedError{StatusCode: http.StatusNotFound, Original: errors.New("SecretNotFound")}
	}
	return bundle, nil
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestNewAKVSecretFetcher(t *testing.T) {
	tests := []struct {
		doc         string
		opts        *AKVSecretOptions
		shouldError bool
		expected    vault.SecretFetcher
	}{
		{
			doc:         "nil options",
			opts:        nil,
			shouldError: true,
		},
		{
			doc:         "missing vault URL",
			opts:        &AKVSecretOptions{SecretName: "mysecret"},
			shouldError: true,
		},
		{
			doc:         "missing secret name",
			opts:        &AKVSecretOptions{VaultURL: "https://myvault.vault.azure.net"},
			shouldError: true,
		},
		{
			doc:         "unknown backend",
			opts:        &AKVSecretOptions{VaultURL: "https://myvault.vault.azure.net", SecretName: "mysecret", Backend: "vault"},
			shouldError: true,
		},
		{
			doc: "default backend",
			opts: &AKVSecretOptions{
				VaultURL:    "https://MyVault.vault.azure.net/",
				SecretName:  "mysecret",
				MSIClientID: "myclientID",
			},
			expected: &AKVSecretFetcher{
				VaultURL:    "https://myvault.vault.azure.net",
				SecretName:  "mysecret",
				MSIClientID: "myclientID",
				Cloud:       PublicCloud,
			},
		},
		{
			doc: "autorest backend",
			opts: &AKVSecretOptions{
				VaultURL:      "https://myvault.vault.azure.net",
				SecretName:    "mysecret",
				SecretVersion: "v1",
				Backend:       BackendAutorest,
			},
			expected: &AutorestSecretFetcher{
				VaultURL:       "https://myvault.vault.azure.net",
				SecretName:     "mysecret",
				SecretVersion:  "v1",
				AADResourceURL: "https://vault.azure.net",
			},
		},
		{
			doc: "autorest backend with resource override",
			opts: &AKVSecretOptions{
				VaultURL:       "https://myvault.vault-int.azure-int.net",
				SecretName:     "mysecret",
				AADResourceURL: "https://vault-int.azure-int.net",
				Backend:        BackendAutorest,
			},
			expected: &AutorestSecretFetcher{
				VaultURL:       "https://myvault.vault-int.azure-int.net",
				SecretName:     "mysecret",
				AADResourceURL: "https://vault-int.azure-int.net",
			},
		},
	}

	for _, test := range tests {
		t.Run(test.doc, func(t *testing.T) {
			fetcher, err := NewAKVSecretFetcher(test.opts)
			if test.shouldError {
				assert.Assert(t, errors.Is(err, vault.ErrInvalidConfig), "got %v", err)
				return
			}
			assert.NilError(t, err)
			assert.Check(t, is.DeepEqual(test.expected, fetcher,
				cmp.AllowUnexported(AKVSecretFetcher{}, AutorestSecretFetcher{}, Cloud{})))
		})
	}
}

func TestAKVSecretFetcherFetchSecret(t *testing.T) {
	client := &fakeSecretClient{
		secrets: map[string]azsecrets.Secret{
			"mysecret": {
				ID:          toID("https://myvault.vault.azure.net/secrets/mysecret/0123456789abcdef"),
				Value:       strPtr("s3cr3t"),
				ContentType: strPtr("text/plain"),
				Attributes:  &azsecrets.SecretAttributes{Enabled: boolPtr(true)},
			},
			"novalue": {},
		},
	}

	fetcher := &AKVSecretFetcher{
		VaultURL:   "https://myvault.vault.azure.net",
		SecretName: "mysecret",
		client:     client,
	}

	secret, err := fetcher.FetchSecret(context.Background())
	assert.NilError(t, err)
	assert.Check(t, is.DeepEqual(&vault.Secret{
		Name:        "mysecret",
		Version:     "0123456789abcdef",
		ID:          "https://myvault.vault.azure.net/secrets/mysecret/0123456789abcdef",
		ContentType: "text/plain",
		Enabled:     boolPtr(true),
		Value:       "s3cr3t",
	}, secret))
	assert.Check(t, is.DeepEqual([]string{"mysecret/"}, client.calls))

	fetcher.SecretName = "missing"
	_, err = fetcher.FetchSecret(context.Background())
	assert.Assert(t, errors.Is(err, vault.ErrSecretNotFound), "got %v", err)

	fetcher.SecretName = "novalue"
	_, err = fetcher.FetchSecret(context.Background())
	assert.Assert(t, errors.Is(err, vault.ErrSecretNotFound), "got %v", err)
}

func TestAKVSecretFetcherAuthenticationError(t *testing.T) {
	fetcher := &AKVSecretFetcher{
		VaultURL:   "https://myvault.vault.azure.net",
		SecretName: "mysecret",
		client:     &fakeSecretClient{err: &azcore.ResponseError{StatusCode: http.StatusUnauthorized}},
	}
	_, err := fetcher.FetchSecret(context.Background())
	assert.Assert(t, errors.Is(err, vault.ErrAuthentication), "got %v", err)
}

func TestAKVSecretFetcherValidation(t *testing.T) {
	var nilFetcher *AKVSecretFetcher
	_, err := nilFetcher.FetchSecret(context.Background())
	assert.Assert(t, errors.Is(err, vault.ErrInvalidConfig))

	_, err = (&AKVSecretFetcher{SecretName: "mysecret"}).FetchSecret(context.Background())
	assert.Assert(t, errors.Is(err, vault.ErrInvalidConfig))
}

func TestAutorestSecretFetcherFetchSecret(t *testing.T) {
	client := &fakeBundleClient{
		bundles: map[string]keyvault.SecretBundle{
			"mysecret": {
				ID:         strPtr("https://myvault.vault.azure.net/secrets/mysecret/v2"),
				Value:      strPtr("s3cr3t"),
				Attributes: &keyvault.SecretAttributes{Enabled: boolPtr(false)},
			},
		},
	}

	fetcher := &AutorestSecretFetcher{
		VaultURL:       "https://myvault.vault.azure.net",
		SecretName:     "mysecret",
		AADResourceURL: "https://vault.azure.net",
		client:         client,
	}

	secret, err := fetcher.FetchSecret(context.Background())
	assert.NilError(t, err)
	assert.Check(t, is.DeepEqual(&vault.Secret{
		Name:    "mysecret",
		Version: "v2",
		ID:      "https://myvault.vault.azure.net/secrets/mysecret/v2",
		Enabled: boolPtr(false),
		Value:   "s3cr3t",
	}, secret))
	assert.Check(t, is.DeepEqual([]string{"https://myvault.vault.azure.net"}, client.vaultURLs))

	fetcher.SecretName = "missing"
	_, err = fetcher.FetchSecret(context.Background())
	assert.Assert(t, errors.Is(err, vault.ErrSecretNotFound), "got %v", err)

	fetcher.AADResourceURL = ""
	_, err = fetcher.FetchSecret(context.Background())
	assert.Assert(t, errors.Is(err, vault.ErrInvalidConfig), "got %v", err)
}

func TestAutorestSecretFetcherAuthenticationError(t *testing.T) {
	fetcher := &AutorestSecretFetcher{
		VaultURL:       "https://myvault.vault.azure.net",
		SecretName:     "mysecret",
		AADResourceURL: "https://vault.azure.net",
		client:         &fakeBundleClient{err: autorest.DetailedError{StatusCode: http.StatusForbidden, Original: errors.New("Forbidden")}},
	}
	_, err := fetcher.FetchSecret(context.Background())
	assert.Assert(t, errors.Is(err, vault.ErrAuthentication), "got %v", err)
}

func TestParseBackend(t *testing.T) {
	for in, expected := range map[string]Backend{"": BackendAzSecrets, "azsecrets": BackendAzSecrets, "autorest": BackendAutorest} {
		actual, err := ParseBackend(in)
		assert.NilError(t, err)
		assert.Equal(t, actual, expected)
	}
	_, err := ParseBackend("track1")
	assert.ErrorContains(t, err, "invalid backend")
}

func toID(s string) *azsecrets.ID {
	id := azsecrets.ID(s)
	return &id
}

func TestNewAKVSecretFetcherDerivesResourceFromVault(t *testing.T) {
	fetcher, err := NewAKVSecretFetcher(&AKVSecretOptions{
		VaultURL:   "https://myvault.vault.azure.cn",
		SecretName: "mysecret",
		Backend:    BackendAutorest,
		Cloud:      PublicCloud,
	})
	assert.NilError(t, err)
	assert.Equal(t, fetcher.(*AutorestSecretFetcher).AADResourceURL, "https://vault.azure.cn")
}
