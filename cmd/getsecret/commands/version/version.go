// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package version

import (
	"fmt"
	"runtime"

	"github.com/Azure/keyvault-getsecret/version"
	"github.com/urfave/cli"
)

// Command prints the client and runtime versions.
var Command = cli.Command{
	Name:  "version",
	Usage: "print the client and runtime versions",
	Action: func(context *cli.Context) error {
		w := context.App.Writer
		fmt.Fprintln(w, "Client:")
		fmt.Fprintln(w, "  Version:", version.Version)
		fmt.Fprintln(w, "  Revision:", version.Revision)
		fmt.Fprintln(w, "  Go version:", runtime.Version())
		fmt.Fprintln(w, "  Go compiler:", runtime.Compiler)
		fmt.Fprintln(w, "  Platform:", runtime.GOOS, runtime.GOARCH)
		return nil
	},
}
