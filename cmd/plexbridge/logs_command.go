package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"plexbridge/internal/api"
	"plexbridge/internal/ipc"
	"plexbridge/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var player string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display daemon logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if lines <= 0 {
				lines = 20
			}
			if err := streamLogsFromAPI(cmd, cfg.Paths.APIBind, cfg.Paths.APIToken, lines, follow, player); err == nil {
				return nil
			} else if !logs.IsAPIUnavailable(err) {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				return tailLogs(cmd, client, lines, follow, player)
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of recent lines to show")
	cmd.Flags().StringVar(&player, "player", "", "Only show events for this player")
	return cmd
}

func streamLogsFromAPI(cmd *cobra.Command, bind, token string, lines int, follow bool, player string) error {
	client, err := logs.NewStreamClient(bind, token)
	if err != nil {
		return fmt.Errorf("log api client: %w", err)
	}
	if client == nil {
		return logs.ErrAPIUnavailable
	}
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	resp, err := client.Fetch(ctx, logs.StreamQuery{Limit: lines, Tail: true, PlayerID: player})
	if err != nil {
		return err
	}
	printLogEvents(out, resp.Events)
	if !follow {
		if len(resp.Events) == 0 {
			fmt.Fprintln(out, "No log entries available")
		}
		return nil
	}
	next := resp.Next
	for {
		resp, err := client.Fetch(ctx, logs.StreamQuery{Since: next, Limit: 200, Follow: true, PlayerID: player})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		printLogEvents(out, resp.Events)
		if resp.Next > next {
			next = resp.Next
		}
	}
}

func tailLogs(cmd *cobra.Command, client *ipc.Client, lines int, follow bool, player string) error {
	out := cmd.OutOrStdout()
	resp, err := client.LogTail(ipc.LogTailRequest{Limit: lines, Tail: true})
	if err != nil {
		return fmt.Errorf("tail logs: %w", err)
	}
	if resp == nil {
		return errors.New("log tail response missing")
	}
	printLogEvents(out, filterPlayer(resp.Events, player))
	if !follow {
		if len(resp.Events) == 0 {
			fmt.Fprintln(out, "No log entries available")
		}
		return nil
	}

	next := resp.Next
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		default:
		}
		resp, err := client.LogTail(ipc.LogTailRequest{Since: next, Limit: 200, Follow: true, WaitMillis: 1000})
		if err != nil {
			return fmt.Errorf("tail logs: %w", err)
		}
		printLogEvents(out, filterPlayer(resp.Events, player))
		if resp.Next > next {
			next = resp.Next
		}
	}
}

func filterPlayer(events []api.LogEvent, player string) []api.LogEvent {
	player = strings.TrimSpace(player)
	if player == "" {
		return events
	}
	out := make([]api.LogEvent, 0, len(events))
	for _, evt := range events {
		if evt.PlayerID == player {
			out = append(out, evt)
		}
	}
	return out
}

func printLogEvents(out io.Writer, events []api.LogEvent) {
	for _, evt := range events {
		fmt.Fprintln(out, formatLogEvent(evt))
	}
}

func formatLogEvent(evt api.LogEvent) string {
	var b strings.Builder
	b.WriteString(evt.Timestamp)
	b.WriteByte(' ')
	b.WriteString(fmt.Sprintf("%-5s", strings.ToUpper(evt.Level)))
	if evt.Component != "" {
		b.WriteString(" [")
		b.WriteString(evt.Component)
		b.WriteByte(']')
	}
	if evt.PlayerID != "" {
		b.WriteString(" player=")
		b.WriteString(evt.PlayerID)
	}
	b.WriteByte(' ')
	b.WriteString(evt.Message)
	if len(evt.Fields) > 0 {
		keys := make([]string, 0, len(evt.Fields))
		for k := range evt.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%s", k, evt.Fields[k])
		}
	}
	return b.String()
}
