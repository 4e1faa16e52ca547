package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ytplayer/internal/fileutil"
)

func newPlaylistsCommand(ctx *commandContext) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "playlists",
		Short: "List a user's playlists",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(user) == "" {
				return fmt.Errorf("--user is required")
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			account, err := store.User(cmd.Context(), user)
			if err != nil {
				return err
			}
			records, err := store.Playlists(cmd.Context(), account.Username)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, records)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintf(out, "No playlists for %s\n", account.Username)
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				rows = append(rows, []string{
					r.Name,
					string(r.Status),
					yesNo(r.Done),
					fmt.Sprintf("%d", r.Progress),
					fmt.Sprintf("%d", r.DroppedPages),
					formatBytes(fileutil.DirSize(store.PlaylistDir(account, r.Name))),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Playlist", "Status", "Done", "Items", "Dropped", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "Account to list")
	return cmd
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
