package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"ytplayer/internal/fileutil"
)

func newUserCommand(ctx *commandContext) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	userCmd.AddCommand(newUserAddCommand(ctx))
	userCmd.AddCommand(newUserListCommand(ctx))
	userCmd.AddCommand(newUserCheckCommand(ctx))
	return userCmd
}

func newUserAddCommand(ctx *commandContext) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create an account and its playlist folder",
		Long: `Create an account and its playlist folder.

The password is taken from --password, or read from the first line of stdin
when the flag is omitted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := password
			if secret == "" {
				line, err := readSecret(cmd.InOrStdin())
				if err != nil {
					return err
				}
				secret = line
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			user, err := store.CreateUser(cmd.Context(), args[0], secret)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, user)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (folder %s)\n", user.Username, store.UserDir(user))
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (read from stdin when omitted)")
	return cmd
}

func newUserCheckCommand(ctx *commandContext) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "check <username>",
		Short: "Verify an account password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := password
			if secret == "" {
				line, err := readSecret(cmd.InOrStdin())
				if err != nil {
					return err
				}
				secret = line
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			ok, err := store.CheckCredentials(cmd.Context(), args[0], secret)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("credentials rejected for %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Credentials valid for %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (read from stdin when omitted)")
	return cmd
}

func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("password is required (use --password or pipe it on stdin)")
	}
	return line, nil
}

func newUserListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			users, err := store.Users(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, users)
			}
			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, "No users")
				return nil
			}
			rows := make([][]string, 0, len(users))
			for i := range users {
				u := &users[i]
				rows = append(rows, []string{
					u.Username,
					u.FolderName,
					formatBytes(fileutil.DirSize(store.UserDir(u))),
					formatAge(u.CreatedAt),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"User", "Folder", "Size", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}
