// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azurekeyvault

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/keyvault-getsecret/vault"
	"github.com/pkg/errors"
)

// CredentialKind selects how the azsecrets backend authenticates.
type CredentialKind string

const (
	// CredentialDefault walks the ambient credential chain: environment, workload identity,
	// managed identity and finally the Azure CLI login.
	CredentialDefault CredentialKind = "default"
	// CredentialEnvironment reads a service principal from AZURE_* environment variables.
	CredentialEnvironment CredentialKind = "environment"
	// CredentialManagedIdentity uses the host's managed identity.
	CredentialManagedIdentity CredentialKind = "managed-identity"
	// CredentialWorkloadIdentity exchanges a federated service account token.
	CredentialWorkloadIdentity CredentialKind = "workload-identity"
	// CredentialAzureCLI uses the signed-in Azure CLI account.
	CredentialAzureCLI CredentialKind = "cli"
)

var credentialKinds = map[CredentialKind]bool{
	CredentialDefault:          true,
	CredentialEnvironment:      true,
	CredentialManagedIdentity:  true,
	CredentialWorkloadIdentity: true,
	CredentialAzureCLI:         true,
}

// ParseCredentialKind returns the credential kind named by s. An empty string selects the default chain.
func ParseCredentialKind(s string) (CredentialKind, error) {
	if s == "" {
		return CredentialDefault, nil
	}
	kind := CredentialKind(s)
	if !credentialKinds[kind] {
		return "", fmt.Errorf("invalid credential: %s", s)
	}
	return kind, nil
}

// credentialOptions carries what the azidentity constructors need.
type credentialOptions struct {
	Kind     CredentialKind
	ClientID string
	TenantID string
	Cloud    *Cloud
}

func newCredential(opts credentialOptions) (azcore.TokenCredential, error) {
	c := opts.Cloud
	if c == nil {
		c = PublicCloud
	}
	clientOptions := azcore.ClientOptions{Cloud: c.Configuration}

	var (
		cred azcore.TokenCredential
		err  error
	)
	switch opts.Kind {
	case "", CredentialDefault:
		// The chain reads the managed identity client ID from AZURE_CLIENT_ID.
		cred, err = azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
			ClientOptions: clientOptions,
			TenantID:      opts.TenantID,
		})
	case CredentialEnvironment:
		cred, err = azidentity.NewEnvironmentCredential(&azidentity.EnvironmentCredentialOptions{
			ClientOptions: clientOptions,
		})
	case CredentialManagedIdentity:
		miOptions := &azidentity.ManagedIdentityCredentialOptions{ClientOptions: clientOptions}
		if opts.ClientID != "" {
			miOptions.ID = azidentity.ClientID(opts.ClientID)
		}
		cred, err = azidentity.NewManagedIdentityCredential(miOptions)
	case CredentialWorkloadIdentity:
		cred, err = azidentity.NewWorkloadIdentityCredential(&azidentity.WorkloadIdentityCredentialOptions{
			ClientOptions: clientOptions,
			ClientID:      opts.ClientID,
			TenantID:      opts.TenantID,
		})
	case CredentialAzureCLI:
		cred, err = azidentity.NewAzureCLICredential(&azidentity.AzureCLICredentialOptions{
			TenantID: opts.TenantID,
		})
	default:
		return nil, vault.NewError(vault.ErrInvalidConfig, fmt.Errorf("invalid credential: %s", opts.Kind))
	}
	if err != nil {
		return nil, vault.NewError(vault.ErrAuthentication, errors.Wrapf(err, "failed to create %s credential", opts.Kind))
	}
	return &authCredential{TokenCredential: cred}, nil
}

// authCredential marks every token acquisition failure as an authentication error,
// whichever credential in the chain produced it.
type authCredential struct {
	azcore.TokenCredential
}

// GetToken implements azcore.TokenCredential.
func (c *authCredential) GetToken(ctx context.Context, options policy.TokenRequestOptions) (azcore.AccessToken, error) {
	token, err := c.TokenCredential.GetToken(ctx, options)
	if err != nil {
		return token, vault.NewError(vault.ErrAuthentication, err)
	}
	return token, nil
}
