package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"georesponse_backend/internal/auth/password"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "admin-hash [password]",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Long: `Hashes the admin password for the ADMIN_PASSWORD_HASH setting.
The password is read from the first argument, or from the first line of
stdin when no argument is given.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			plain, err := readPassword(cmd, args)
			if err != nil {
				return err
			}
			hash, err := password.Hash(plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func readPassword(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password given")
	}
	plain := strings.TrimRight(line, "\r\n")
	if plain == "" {
		return "", errors.New("no password given")
	}
	return plain, nil
}
