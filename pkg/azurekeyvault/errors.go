// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azurekeyvault

import (
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/go-autorest/autorest"
	"github.com/Azure/go-autorest/autorest/adal"
	"github.com/Azure/keyvault-getsecret/vault"
	"github.com/pkg/errors"
)

// classifyError maps SDK errors onto the vault error kinds. Errors it does not
// recognize are returned unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var kindErr *vault.Error
	if errors.As(err, &kindErr) {
		return err
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return classifyStatusCode(respErr.StatusCode, err)
	}

	var authErr *azidentity.AuthenticationFailedError
	if errors.As(err, &authErr) {
		return vault.NewError(vault.ErrAuthentication, err)
	}

	var refreshErr adal.TokenRefreshError
	if errors.As(err, &refreshErr) {
		return vault.NewError(vault.ErrAuthentication, err)
	}

	var detailedErr autorest.DetailedError
	if errors.As(err, &detailedErr) {
		if statusCode, ok := detailedErr.StatusCode.(int); ok {
			return classifyStatusCode(statusCode, err)
		}
	}

	return err
}

func classifyStatusCode(statusCode int, err error) error {
	switch statusCode {
	case http.StatusNotFound:
		return vault.NewError(vault.ErrSecretNotFound, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return vault.NewError(vault.ErrAuthentication, err)
	}
	return err
}
