// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package tokenutil

import (
	"fmt"
	"os"

	"github.com/Azure/go-autorest/autorest"
	"github.com/Azure/go-autorest/autorest/adal"
	"github.com/Azure/go-autorest/autorest/azure/auth"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// environment variable to override the default msi endpoint
	envMsiEndpoint = "KEY_VAULT_MSI_ENDPOINT"

	// the well known endpoint for getting MSI authentications tokens
	defaultMsiEndpoint = "http://169.254.169.254/metadata/identity/oauth2/token"
)

// NewAuthorizer creates a bearer authorizer for resourceID.
// A user assigned identity, or an overridden MSI endpoint, selects MSI directly;
// otherwise the authorizer is resolved from the AZURE_* environment, which itself
// falls back to the system assigned identity.
func NewAuthorizer(resourceID, clientID string) (autorest.Authorizer, error) {
	if clientID != "" || os.Getenv(envMsiEndpoint) != "" {
		spToken, err := GetServicePrincipalToken(resourceID, clientID)
		if err != nil {
			return nil, err
		}
		return autorest.NewBearerAuthorizer(spToken), nil
	}

	logrus.Debugf("Resolving authorizer for %s from the environment", resourceID)
	authorizer, err := auth.NewAuthorizerFromEnvironmentWithResource(resourceID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create authorizer from environment")
	}
	return authorizer, nil
}

// GetServicePrincipalToken gets ServicePrincipal token
// it is based on github.com/Azure/go-autorest/autorest/azure/auth/auth.go and allows overriding the msi endpont using environment variable
func GetServicePrincipalToken(resourceID, clientID string) (*adal.ServicePrincipalToken, error) {
	mc := GetMSIConfig(resourceID, clientID)
	endpoint := msiEndpoint()
	logrus.Debugf("Using MSI endpoint %s for %s", endpoint, resourceID)

	var spToken *adal.ServicePrincipalToken
	var err error
	if mc.ClientID == "" {
		spToken, err = adal.NewServicePrincipalTokenFromMSI(endpoint, mc.Resource)
		if err != nil {
			return nil, fmt.Errorf("failed to get oauth token from MSI: %v", err)
		}
	} else {
		spToken, err = adal.NewServicePrincipalTokenFromMSIWithUserAssignedID(endpoint, mc.Resource, mc.ClientID)
		if err != nil {
			return nil, fmt.Errorf("failed to get oauth token from MSI for user assigned identity: %v", err)
		}
	}

	return spToken, nil
}

// GetMSIConfig gets the MSI Config given resourceID and MSI clientID
func GetMSIConfig(resourceID, clientID string) *auth.MSIConfig {
	return &auth.MSIConfig{
		Resource: resourceID,
		ClientID: clientID,
	}
}

func msiEndpoint() string {
	if endpoint := os.Getenv(envMsiEndpoint); endpoint != "" {
		return endpoint
	}
	return defaultMsiEndpoint
}
