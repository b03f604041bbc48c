package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"plexbridge/internal/api"
	"plexbridge/internal/ipc"
)

func newPlayersCommand(ctx *commandContext) *cobra.Command {
	playersCmd := &cobra.Command{
		Use:     "players",
		Aliases: []string{"player"},
		Short:   "Manage registered players",
	}

	playersCmd.AddCommand(newPlayersListCommand(ctx))
	playersCmd.AddCommand(newPlayersAddCommand(ctx))
	playersCmd.AddCommand(newPlayersRemoveCommand(ctx))
	playersCmd.AddCommand(newPlayersDiscoverCommand(ctx))
	playersCmd.AddCommand(newPlayersHistoryCommand(ctx))

	return playersCmd
}

func newPlayersListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered players and their current state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Players()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Players) == 0 {
					fmt.Fprintln(out, "No players registered")
					return nil
				}
				fmt.Fprint(out, renderTable(
					[]string{"ID", "Status", "Power", "Media", "Progress", "Ends", "Device"},
					playerRows(resp.Players),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				fmt.Fprintf(out, "%d registered, %d active\n", resp.Counts.Total, resp.Counts.Active)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print players as JSON")
	return cmd
}

func playerRows(list []api.Player) [][]string {
	rows := make([][]string, 0, len(list))
	for _, p := range list {
		rows = append(rows, []string{
			p.ID,
			p.Status,
			p.Power,
			orDash(mediaLabel(p.Title, p.GrandparentTitle)),
			formatProgress(p.Progress),
			orDash(p.EndTime),
			orDash(p.Device),
		})
	}
	return rows
}

func newPlayersAddCommand(ctx *commandContext) *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "add <machine-id>",
		Short: "Register a player by machine identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if id == "" {
				return errors.New("machine identifier is required")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RegisterPlayer(id, label)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if resp.Created {
					fmt.Fprintf(out, "Registered player %s\n", resp.Player.ID)
				} else {
					fmt.Fprintf(out, "Player %s already registered\n", resp.Player.ID)
				}
				fmt.Fprintf(out, "Current state: %s (%s)\n", resp.Player.Status, resp.Player.Power)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "Friendly label stored with the registration")
	return cmd
}

func newPlayersRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <machine-id>",
		Aliases: []string{"rm"},
		Short:   "Deregister a player and discard its history",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DeregisterPlayer(id)
				if err != nil {
					return err
				}
				if !resp.Removed {
					return fmt.Errorf("player %s is not registered", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed player %s\n", id)
				return nil
			})
		},
	}
}

func newPlayersDiscoverCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List unregistered players seen in active sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Discovered()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Players) == 0 {
					fmt.Fprintln(out, "No unregistered players seen")
					return nil
				}
				rows := make([][]string, 0, len(resp.Players))
				for _, s := range resp.Players {
					rows = append(rows, []string{
						s.MachineIdentifier,
						orDash(s.Name),
						orDash(s.Product),
						orDash(s.Platform),
						orDash(s.MediaTitle),
						orDash(s.LastSeen),
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"Machine ID", "Name", "Product", "Platform", "Playing", "Last Seen"},
					rows,
					nil,
				))
				fmt.Fprintln(out, "Register one with `plexbridge players add <machine-id>`")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print sightings as JSON")
	return cmd
}

func newPlayersHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history [machine-id]",
		Short: "Show recorded playback transitions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ipc.HistoryRequest{Limit: limit}
			if len(args) == 1 {
				req.PlayerID = strings.TrimSpace(args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(req)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Events) == 0 {
					fmt.Fprintln(out, "No history recorded")
					return nil
				}
				rows := make([][]string, 0, len(resp.Events))
				for _, evt := range resp.Events {
					rows = append(rows, []string{
						evt.OccurredAt,
						evt.PlayerID,
						evt.Status,
						evt.Power,
						orDash(mediaLabel(evt.Title, evt.GrandparentTitle)),
						formatProgress(evt.Progress),
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"Time", "Player", "Status", "Power", "Media", "Progress"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of events to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print events as JSON")
	return cmd
}
