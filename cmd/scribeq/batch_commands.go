package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scribeq/internal/ipc"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Control batch processing runs",
	}

	batchCmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start processing pending queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.BatchStart()
				if err != nil {
					return err
				}
				if !resp.Started {
					return fmt.Errorf("batch not started: %s", resp.Message)
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	})

	batchCmd.AddCommand(&cobra.Command{
		Use:   "pause",
		Short: "Pause the run before the next file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.BatchPause()
				if err != nil {
					return err
				}
				if !resp.Paused {
					fmt.Fprintln(cmd.OutOrStdout(), "No batch run is active")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Pause requested; the current file will finish first")
				return nil
			})
		},
	})

	batchCmd.AddCommand(&cobra.Command{
		Use:   "resume",
		Short: "Resume a paused run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.BatchResume()
				if err != nil {
					return err
				}
				if !resp.Resumed {
					fmt.Fprintln(cmd.OutOrStdout(), "No batch run is active")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Run resumed")
				return nil
			})
		},
	})

	batchCmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop the active run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.BatchStop()
				if err != nil {
					return err
				}
				if !resp.Stopped {
					fmt.Fprintln(cmd.OutOrStdout(), "No batch run is active")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Stop requested")
				return nil
			})
		},
	})

	return batchCmd
}
