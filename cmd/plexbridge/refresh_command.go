package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"plexbridge/internal/ipc"
)

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Poll the Plex server immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Refresh()
				if err != nil {
					return err
				}
				if resp.Requested {
					fmt.Fprintln(cmd.OutOrStdout(), "Refresh requested")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Bridge is not running; nothing to refresh")
				}
				return nil
			})
		},
	}
}
