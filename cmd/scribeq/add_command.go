package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scribeq/internal/ipc"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>...",
		Short: "Add media or subtitle files to the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueAdd(args)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, item := range resp.Items {
					fmt.Fprintf(out, "Added %s (item %d, %s)\n", item.DisplayName, item.ID, item.Kind)
				}
				for _, rejected := range resp.Rejected {
					fmt.Fprintf(out, "Rejected %s\n", rejected)
				}
				if len(resp.Rejected) > 0 && len(resp.Items) == 0 {
					return fmt.Errorf("no files were added")
				}
				return nil
			})
		},
	}
}
