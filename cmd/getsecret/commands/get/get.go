// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package get

import (
	gocontext "context"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/Azure/keyvault-getsecret/pkg/azurekeyvault"
	"github.com/Azure/keyvault-getsecret/pkg/config"
	"github.com/Azure/keyvault-getsecret/pkg/output"
	"github.com/Azure/keyvault-getsecret/vault"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

// FetcherFactory creates the fetcher for the resolved secret options.
type FetcherFactory func(opts *azurekeyvault.AKVSecretOptions) (vault.SecretFetcher, error)

// Flags configure a secret fetch. Every flag can also be set through its environment variable.
var Flags = []cli.Flag{
	// Secret location
	cli.StringFlag{
		Name:   "vault-name",
		Usage:  "the name of the azure keyvault",
		EnvVar: config.EnvVaultName,
	},
	cli.StringFlag{
		Name:   "secret-name",
		Usage:  "the name of the secret",
		EnvVar: config.EnvSecretName,
	},
	cli.StringFlag{
		Name:   "secret-version",
		Usage:  "the version of the secret, defaults to the latest",
		EnvVar: config.EnvSecretVersion,
	},
	cli.StringFlag{
		Name:   "vault-url",
		Usage:  "the azure keyvault URL, overrides the URL derived from the vault name",
		EnvVar: config.EnvVaultURL,
	},
	cli.StringFlag{
		Name:   "url",
		Usage:  "the azure keyvault secret URL, ex. https://myvault.vault.azure.net/secrets/mysecret",
		EnvVar: config.EnvSecretURL,
	},
	cli.StringFlag{
		Name:   "cloud",
		Usage:  "the azure cloud hosting the vault (default: AzurePublicCloud)",
		EnvVar: config.EnvCloud,
	},

	// Authentication
	cli.StringFlag{
		Name:   "credential",
		Usage:  "the credential to authenticate with: default, environment, managed-identity, workload-identity or cli (default: default)",
		EnvVar: config.EnvCredential,
	},
	cli.StringFlag{
		Name:   "client-id",
		Usage:  "the MSI user assigned identity client ID",
		EnvVar: config.EnvClientID,
	},
	cli.StringFlag{
		Name:   "tenant-id",
		Usage:  "the azure active directory tenant",
		EnvVar: config.EnvTenantID,
	},
	cli.StringFlag{
		Name:   "backend",
		Usage:  "the keyvault client to use: azsecrets or autorest (default: azsecrets)",
		EnvVar: config.EnvBackend,
	},

	// Options
	cli.StringFlag{
		Name:   "output,o",
		Usage:  "the output format: text, json or yaml (default: text)",
		EnvVar: config.EnvOutput,
	},
	cli.DurationFlag{
		Name:   "timeout",
		Usage:  "the maximum time to wait for the secret",
		EnvVar: config.EnvTimeout,
	},
	cli.StringFlag{
		Name:  "env-file",
		Usage: "a dotenv file to load before reading the environment",
	},
	// KEY_VAULT_DEBUG is read leniently in configFromContext; binding it here
	// would make an unparsable value fail every command.
	cli.BoolFlag{
		Name:  "debug",
		Usage: "enables diagnostic logging, also set by KEY_VAULT_DEBUG",
	},
}

// Command fetches a secret from azure keyvault and writes it to standard output.
var Command = cli.Command{
	Name:   "get",
	Usage:  "gets the secret value from azure keyvault",
	Flags:  Flags,
	Action: Action,
}

// Action runs a secret fetch configured by the context's flags.
func Action(context *cli.Context) error {
	if envFile := stringValue(context, "env-file", ""); envFile != "" {
		if err := loadEnvFile(envFile); err != nil {
			return err
		}
	}

	cfg, err := configFromContext(context)
	if err != nil {
		return err
	}

	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	return Run(gocontext.Background(), cfg, context.App.Writer, azurekeyvault.NewAKVSecretFetcher)
}

// Run fetches the configured secret and writes it to w.
func Run(ctx gocontext.Context, cfg *config.Config, w io.Writer, newFetcher FetcherFactory) error {
	opts, err := cfg.SecretOptions()
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return vault.NewError(vault.ErrInvalidConfig, err)
	}

	fetcher, err := newFetcher(opts)
	if err != nil {
		return err
	}

	ctx, cancel := gocontext.WithTimeout(ctx, cfg.EffectiveTimeout())
	defer cancel()

	start := time.Now()
	secret, err := fetcher.FetchSecret(ctx)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"vault":    opts.VaultURL,
		"secret":   secret.Name,
		"version":  secret.Version,
		"duration": time.Since(start),
	}).Debug("Fetched secret")

	return output.Write(w, format, secret)
}

// loadEnvFile sets the variables of a dotenv file that are not already in the environment.
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return vault.NewError(vault.ErrInvalidConfig, errors.Wrapf(err, "failed to load env file %s", path))
	}
	logrus.Debugf("Loaded environment from %s", path)
	return nil
}

// configFromContext reads the flags. Values missing from both the flags and the
// process environment at parse time are looked up again so a loaded env file
// is honored.
func configFromContext(context *cli.Context) (*config.Config, error) {
	timeout := context.Duration("timeout")
	if timeout == 0 {
		timeout = context.GlobalDuration("timeout")
	}
	if timeout == 0 {
		if v := os.Getenv(config.EnvTimeout); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, vault.NewError(vault.ErrInvalidConfig, errors.Wrapf(err, "invalid %s", config.EnvTimeout))
			}
			timeout = d
		}
	}

	debug := context.Bool("debug") || context.GlobalBool("debug")
	if !debug {
		debug, _ = strconv.ParseBool(os.Getenv(config.EnvDebug))
	}

	return &config.Config{
		VaultName:     stringValue(context, "vault-name", config.EnvVaultName),
		VaultURL:      stringValue(context, "vault-url", config.EnvVaultURL),
		SecretName:    stringValue(context, "secret-name", config.EnvSecretName),
		SecretVersion: stringValue(context, "secret-version", config.EnvSecretVersion),
		SecretURL:     stringValue(context, "url", config.EnvSecretURL),
		Cloud:         stringValue(context, "cloud", config.EnvCloud),
		Credential:    stringValue(context, "credential", config.EnvCredential),
		ClientID:      stringValue(context, "client-id", config.EnvClientID),
		TenantID:      stringValue(context, "tenant-id", config.EnvTenantID),
		Backend:       stringValue(context, "backend", config.EnvBackend),
		Output:        stringValue(context, "output", config.EnvOutput),
		Timeout:       timeout,
		Debug:         debug,
	}, nil
}

// stringValue prefers the command's flag, then the same flag given before the
// command name, then the environment. Defaults are applied by config.
func stringValue(context *cli.Context, name, envVar string) string {
	if v := context.String(name); v != "" {
		return v
	}
	if v := context.GlobalString(name); v != "" {
		return v
	}
	if envVar == "" {
		return ""
	}
	return os.Getenv(envVar)
}
