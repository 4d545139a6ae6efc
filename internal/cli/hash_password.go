package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/listsync/internal/api"
)

// HashPasswordOptions holds flags for the hash-password command.
type HashPasswordOptions struct {
	*RootOptions
	Password string
	Cost     int
}

// HashResult is the JSON payload of hash-password.
type HashResult struct {
	Hash string `json:"hash"`
}

// NewHashPasswordCommand creates the hash-password command.
func NewHashPasswordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HashPasswordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash for LISTSYNC_AUTH_PASSWORD_HASH",
		Long: `Hash a password for basic auth. The password is read from --password
or, when the flag is absent, from the first line of stdin.

Examples:
  listsync hash-password --password s3cret
  echo s3cret | listsync hash-password --cost 12`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHashPassword(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Password, "password", "", "password to hash (default: read stdin)")
	cmd.Flags().IntVar(&opts.Cost, "cost", 0, "bcrypt cost (0 uses the library default)")

	return cmd
}

func runHashPassword(cmd *cobra.Command, opts *HashPasswordOptions) error {
	password := opts.Password
	if !cmd.Flags().Changed("password") {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return NewExitError(ExitCommandError, "no password given on stdin")
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return NewExitError(ExitCommandError, "password must not be empty")
	}

	hash, err := api.HashPassword(password, opts.Cost)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash password", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return out.Success(HashResult{Hash: hash})
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
	return err
}
