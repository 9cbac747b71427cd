// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azurekeyvault

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/Azure/keyvault-getsecret/vault"
	"github.com/pkg/errors"
)

var (
	// Vault names are 3-24 characters, start with a letter and end with a letter or digit.
	vaultNameRegexp = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-]{1,22}[a-zA-Z0-9]$`)
	// Secret names are 1-127 letters, digits and dashes.
	secretNameRegexp = regexp.MustCompile(`^[a-zA-Z0-9-]{1,127}$`)
)

// SecretReference locates one secret, optionally pinned to a version.
type SecretReference struct {
	VaultURL       string
	SecretName     string
	SecretVersion  string
	AADResourceURL string
}

// ValidateVaultName returns an error if name cannot be the name of a key vault.
func ValidateVaultName(name string) error {
	if name == "" {
		return vault.NewError(vault.ErrInvalidConfig, errors.New("missing azure keyvault name"))
	}
	if !vaultNameRegexp.MatchString(name) || strings.Contains(name, "--") {
		return vault.NewError(vault.ErrInvalidConfig, fmt.Errorf("invalid azure keyvault name: %q", name))
	}
	return nil
}

// ValidateSecretName returns an error if name cannot be the name of a key vault secret.
func ValidateSecretName(name string) error {
	if name == "" {
		return vault.NewError(vault.ErrInvalidConfig, errors.New("missing secret name"))
	}
	if !secretNameRegexp.MatchString(name) {
		return vault.NewError(vault.ErrInvalidConfig, fmt.Errorf("invalid secret name: %q", name))
	}
	return nil
}

// VaultURL builds the URL of the named vault in the given cloud.
// Ex. myvault -> https://myvault.vault.azure.net
func VaultURL(name string, c *Cloud) (string, error) {
	if err := ValidateVaultName(name); err != nil {
		return "", err
	}
	if c == nil {
		c = PublicCloud
	}
	return fmt.Sprintf("https://%s.%s", strings.ToLower(name), c.KeyVaultDNSSuffix), nil
}

// NormalizeVaultURL validates a vault URL and strips everything but its scheme and host.
func NormalizeVaultURL(vaultURL string) (string, error) {
	if vaultURL == "" {
		return "", vault.NewError(vault.ErrInvalidConfig, errors.New("missing azure keyvault URL"))
	}
	parsedURL, err := parseHTTPSURL(vaultURL)
	if err != nil {
		return "", err
	}
	if p := strings.Trim(parsedURL.Path, "/"); p != "" {
		return "", vault.NewError(vault.ErrInvalidConfig, fmt.Errorf("invalid azure keyvault URL. Unexpected path: %s", parsedURL.Path))
	}
	return fmt.Sprintf("https://%s", parsedURL.Host), nil
}

// ParseSecretURL parses a secret identifier of the form
// https://{vault}/secrets/{name}[/{version}].
func ParseSecretURL(secretURL string) (*SecretReference, error) {
	if secretURL == "" {
		return nil, vault.NewError(vault.ErrInvalidConfig, errors.New("missing azure keyvault secret URL"))
	}

	parsedURL, err := parseHTTPSURL(strings.TrimSuffix(secretURL, "/"))
	if err != nil {
		return nil, err
	}

	urlSegments := strings.Split(parsedURL.Path, "/")

	if len(urlSegments) != 3 && len(urlSegments) != 4 {
		return nil, vault.NewError(vault.ErrInvalidConfig, fmt.Errorf("invalid azure keyvault secret URL. Bad number of URL segments: %d", len(urlSegments)))
	}

	if !strings.EqualFold(urlSegments[1], "secrets") {
		return nil, vault.NewError(vault.ErrInvalidConfig, fmt.Errorf("invalid azure keyvault secret URL. Expected 'secrets' collection, but found: %s", urlSegments[1]))
	}

	if urlSegments[2] == "" {
		return nil, vault.NewError(vault.ErrInvalidConfig, errors.New("invalid azure keyvault secret URL. Missing secret name"))
	}

	secretVersion := ""
	if len(urlSegments) == 4 {
		secretVersion = urlSegments[3]
		if secretVersion == "" {
			return nil, vault.NewError(vault.ErrInvalidConfig, errors.New("invalid azure keyvault secret URL. Empty secret version"))
		}
	}

	vaultHostWithScheme := fmt.Sprintf("https://%s", parsedURL.Host)
	resourceURL, err := aadResourceURL(parsedURL.Host)
	if err != nil {
		return nil, err
	}

	return &SecretReference{
		VaultURL:       vaultHostWithScheme,
		SecretName:     urlSegments[2],
		SecretVersion:  secretVersion,
		AADResourceURL: resourceURL,
	}, nil
}

func parseHTTPSURL(raw string) (*url.URL, error) {
	parsedURL, err := url.Parse(raw)
	if err != nil {
		return nil, vault.NewError(vault.ErrInvalidConfig, errors.Wrap(err, "failed to parse the azure keyvault URL"))
	}
	if !strings.EqualFold(parsedURL.Scheme, "https") {
		return nil, vault.NewError(vault.ErrInvalidConfig, errors.New("invalid azure keyvault URL scheme. Expected Https"))
	}
	if parsedURL.Host == "" {
		return nil, vault.NewError(vault.ErrInvalidConfig, errors.New("invalid azure keyvault URL. Missing host"))
	}
	parsedURL.Host = strings.ToLower(parsedURL.Host)
	return parsedURL, nil
}

// aadResourceURL derives the token audience from a vault host.
// Ex. myacbvault.vault.azure.net -> https://vault.azure.net
func aadResourceURL(host string) (string, error) {
	splitStr := strings.SplitN(host, ".", 2)
	if len(splitStr) != 2 || splitStr[0] == "" || !strings.Contains(splitStr[1], ".") {
		return "", vault.NewError(vault.ErrInvalidConfig, fmt.Errorf("extracted vault resource %s from vault URL is invalid", host))
	}
	return fmt.Sprintf("https://%s", splitStr[1]), nil
}
