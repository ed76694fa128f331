package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scribeq/internal/ipc"
	"scribeq/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, batch, and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(client *ipc.Client, store *queue.Store) error {
				stdout := cmd.OutOrStdout()

				if client == nil {
					stats, err := store.Stats(cmd.Context())
					if err != nil {
						return err
					}
					if jsonOutput {
						return writeJSON(cmd, map[string]any{
							"running":     false,
							"queue_stats": statusKeys(stats),
						})
					}
					fmt.Fprintln(stdout, "Daemon is not running")
					printQueueStats(cmd, statusKeys(stats))
					return nil
				}

				resp, err := client.Status()
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}

				colorize := shouldColorize(stdout)
				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Running", boolKind(resp.Running), fmt.Sprintf("pid %d", resp.PID), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Authenticated", boolKind(resp.Authenticated), "", colorize))
				fmt.Fprintln(stdout, renderStatusLine("Watching inbox", statusInfo, yesNo(resp.Watching), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Detecting", statusInfo, yesNo(resp.Detecting), colorize))
				fmt.Fprintln(stdout)

				for _, line := range renderSectionHeader("Batch", colorize) {
					fmt.Fprintln(stdout, line)
				}
				batchDetail := "idle"
				switch {
				case resp.Batch.Running && resp.Batch.Paused:
					batchDetail = fmt.Sprintf("paused at %d%%", resp.Batch.Progress)
				case resp.Batch.Running:
					batchDetail = fmt.Sprintf("running, %d%%", resp.Batch.Progress)
				}
				fmt.Fprintln(stdout, renderStatusLine("Run", statusInfo, batchDetail, colorize))
				if last := resp.Batch.LastRun; last != nil {
					fmt.Fprintln(stdout, renderStatusLine("Last run", statusInfo, last.Summary(), colorize))
				}
				fmt.Fprintln(stdout)

				for _, line := range renderSectionHeader("Queue", colorize) {
					fmt.Fprintln(stdout, line)
				}
				printQueueStats(cmd, resp.QueueStats)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit status as JSON")
	return cmd
}

func printQueueStats(cmd *cobra.Command, stats map[string]int) {
	rows := buildQueueStatusRows(stats)
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
		return
	}
	table := renderTable([]tableColumn{{Title: "Status"}, {Title: "Count", Numeric: true}}, rows)
	fmt.Fprintln(cmd.OutOrStdout(), table)
}

func statusKeys(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

func boolKind(value bool) statusKind {
	if value {
		return statusOK
	}
	return statusWarn
}
