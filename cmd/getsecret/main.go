// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	getCmd "github.com/Azure/keyvault-getsecret/cmd/getsecret/commands/get"
	versionCmd "github.com/Azure/keyvault-getsecret/cmd/getsecret/commands/version"
	"github.com/Azure/keyvault-getsecret/vault"
	"github.com/Azure/keyvault-getsecret/version"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

// Exit codes returned by getsecret.
const (
	exitGeneric        = 1
	exitInvalidConfig  = 2
	exitAuthentication = 3
	exitNotFound       = 4
)

func main() {
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(logrus.WarnLevel)

	app := New()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(err))
		os.Exit(exitCode(err))
	}
}

// New returns a *cli.App instance.
func New() *cli.App {
	app := cli.NewApp()
	app.Name = "getsecret"
	app.Usage = "print the value of a secret stored in azure keyvault"
	app.Version = version.Version
	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr
	app.Flags = getCmd.Flags
	app.Action = getCmd.Action
	app.Commands = []cli.Command{
		getCmd.Command,
		versionCmd.Command,
	}
	return app
}

func formatErrorMessage(err error) string {
	return strings.ReplaceAll(err.Error(), context.DeadlineExceeded.Error(), "timed out")
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, vault.ErrInvalidConfig):
		return exitInvalidConfig
	case errors.Is(err, vault.ErrAuthentication):
		return exitAuthentication
	case errors.Is(err, vault.ErrSecretNotFound):
		return exitNotFound
	}
	return exitGeneric
}
