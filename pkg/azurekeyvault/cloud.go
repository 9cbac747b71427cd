// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azurekeyvault

import (
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/go-autorest/autorest/azure"
)

// Cloud describes the Key Vault endpoints of one Azure cloud, for both the
// autorest environments and the azcore cloud configuration.
type Cloud struct {
	Name string

	// KeyVaultDNSSuffix is the host suffix of every vault in the cloud, ex. vault.azure.net
	KeyVaultDNSSuffix string

	// AADResourceURL is the token audience for Key Vault, ex. https://vault.azure.net
	AADResourceURL string

	Configuration cloud.Configuration
}

var cloudConfigurations = map[string]cloud.Configuration{
	azure.PublicCloud.Name:       cloud.AzurePublic,
	azure.ChinaCloud.Name:        cloud.AzureChina,
	azure.USGovernmentCloud.Name: cloud.AzureGovernment,
}

// PublicCloud is the global Azure cloud.
var PublicCloud = newCloud(azure.PublicCloud)

// CloudFromName looks up a cloud by its autorest environment name, ex. AzureChinaCloud.
// An empty name selects the public cloud.
func CloudFromName(name string) (*Cloud, error) {
	if name == "" {
		return PublicCloud, nil
	}
	env, err := azure.EnvironmentFromName(name)
	if err != nil {
		return nil, fmt.Errorf("unknown azure cloud: %s", name)
	}
	if _, ok := cloudConfigurations[env.Name]; !ok {
		return nil, fmt.Errorf("azure cloud %s is not supported", env.Name)
	}
	return newCloud(env), nil
}

func newCloud(env azure.Environment) *Cloud {
	return &Cloud{
		Name:              env.Name,
		KeyVaultDNSSuffix: env.KeyVaultDNSSuffix,
		AADResourceURL:    strings.TrimSuffix(env.KeyVaultEndpoint, "/"),
		Configuration:     cloudConfigurations[env.Name],
	}
}
