// Package main is the entry point for virtadm.
package main

import (
	"errors"
	"fmt"
	"os"

	"virtadm/internal/cli"
	"virtadm/internal/netcompat"
	"virtadm/internal/pathstore"
	"virtadm/internal/toolrun"
	"virtadm/internal/virt"
)

// Exit codes are stable per failure kind and documented in the root
// command's help text.
const (
	exitOK              = 0
	exitInternal        = 1
	exitMissingArgument = 2
	exitValidation      = 3
	exitToolNotFound    = 4
	exitToolFailed      = 5
	exitStorage         = 6
	exitVMNotFound      = 7
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitOK)
}

func exitCode(err error) int {
	var (
		missing     *cli.MissingArgumentError
		validation  *netcompat.ValidationError
		storeErr    *pathstore.StorageError
		artifactErr *netcompat.StorageError
		execErr     *toolrun.ExecError
	)

	switch {
	case errors.As(err, &missing):
		return exitMissingArgument
	case errors.As(err, &validation):
		return exitValidation
	case errors.Is(err, toolrun.ErrToolNotFound):
		return exitToolNotFound
	case errors.Is(err, virt.ErrNotFound):
		return exitVMNotFound
	case errors.As(err, &execErr), errors.Is(err, toolrun.ErrTimeout):
		return exitToolFailed
	case errors.As(err, &storeErr), errors.As(err, &artifactErr):
		return exitStorage
	}
	return exitInternal
}
