package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scribeq/internal/ipc"
)

func newDetectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Trigger a language detection pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DetectNow()
				if err != nil {
					return err
				}
				if !resp.Started {
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Detection pass started")
				return nil
			})
		},
	}
}
