package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scribeq/internal/ipc"
	"scribeq/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the work queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueMoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))
	queueCmd.AddCommand(newQueueDBHealthCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items in queue order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(client *ipc.Client, store *queue.Store) error {
				var items []ipc.QueueItem
				if client != nil {
					resp, err := client.QueueList(listStatuses)
					if err != nil {
						return err
					}
					items = resp.Items
				} else {
					var statuses []queue.Status
					for _, value := range listStatuses {
						if parsed, ok := queue.ParseStatus(value); ok {
							statuses = append(statuses, parsed)
						}
					}
					stored, err := store.List(cmd.Context(), statuses...)
					if err != nil {
						return err
					}
					for _, item := range stored {
						items = append(items, ipc.FromQueueItem(item))
					}
				}

				if jsonOutput {
					return writeJSON(cmd, items)
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(
					[]tableColumn{
						{Title: "#", Numeric: true},
						{Title: "ID", Numeric: true},
						{Title: "Name"},
						{Title: "Kind"},
						{Title: "Status"},
						{Title: "Language"},
						{Title: "Progress", Numeric: true},
						{Title: "Credits", Numeric: true},
					},
					buildQueueListRows(items),
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit items as JSON")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <itemID>",
		Short: "Show details for one queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return ctx.withQueue(func(client *ipc.Client, store *queue.Store) error {
				var item ipc.QueueItem
				if client != nil {
					resp, err := client.QueueDescribe(id)
					if err != nil {
						return err
					}
					item = resp.Item
				} else {
					stored, err := store.GetByID(cmd.Context(), id)
					if err != nil {
						return err
					}
					if stored == nil {
						return fmt.Errorf("queue item %d not found", id)
					}
					item = ipc.FromQueueItem(stored)
				}

				if jsonOutput {
					return writeJSON(cmd, item)
				}
				printItemDetails(cmd, item)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the item as JSON")
	return cmd
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <itemID>...",
		Short: "Remove queue items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseItemIDs(args)
			if err != nil {
				return err
			}
			return ctx.withQueue(func(client *ipc.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()
				for _, id := range ids {
					var removed bool
					var err error
					if client != nil {
						resp, respErr := client.QueueRemove(id)
						if respErr != nil {
							err = respErr
						} else {
							removed = resp.Removed
						}
					} else {
						removed, err = store.Remove(cmd.Context(), id)
					}
					switch {
					case err != nil:
						fmt.Fprintf(out, "Item %d: %v\n", id, err)
					case removed:
						fmt.Fprintf(out, "Removed item %d\n", id)
					default:
						fmt.Fprintf(out, "Item %d not found\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newQueueMoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "move <itemID>...",
		Short: "Reorder the queue to the given id sequence",
		Long:  "Rewrites queue positions. Every queued item id must appear exactly once.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseItemIDs(args)
			if err != nil {
				return err
			}
			return ctx.withQueue(func(client *ipc.Client, store *queue.Store) error {
				if client != nil {
					if _, err := client.QueueReorder(ids); err != nil {
						return err
					}
				} else if err := store.Reorder(cmd.Context(), ids); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Queue reordered")
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCompleted && clearFailed {
				return errors.New("specify only one of --completed or --failed")
			}
			return ctx.withQueue(func(client *ipc.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()
				var removed int64
				var err error
				switch {
				case clearCompleted:
					if client != nil {
						var resp *ipc.QueueClearCompletedResponse
						if resp, err = client.QueueClearCompleted(); err == nil {
							removed = resp.Removed
						}
					} else {
						removed, err = store.ClearCompleted(cmd.Context())
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d completed items\n", removed)
				case clearFailed:
					if client != nil {
						var resp *ipc.QueueClearFailedResponse
						if resp, err = client.QueueClearFailed(); err == nil {
							removed = resp.Removed
						}
					} else {
						removed, err = store.ClearFailed(cmd.Context())
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d failed items\n", removed)
				default:
					if client != nil {
						var resp *ipc.QueueClearResponse
						if resp, err = client.QueueClear(); err == nil {
							removed = resp.Removed
						}
					} else {
						removed, err = store.Clear(cmd.Context())
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d queue items\n", removed)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove only completed items")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove only failed items")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [itemID...]",
		Short: "Return failed queue items to pending",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseItemIDs(args)
			if err != nil {
				return err
			}
			return ctx.withQueue(func(client *ipc.Client, store *queue.Store) error {
				var updated int64
				if client != nil {
					resp, err := client.QueueRetry(ids)
					if err != nil {
						return err
					}
					updated = resp.Updated
				} else {
					updated, err = store.RetryFailed(cmd.Context(), ids...)
					if err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried %d failed items\n", updated)
				return nil
			})
		},
	}
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Return in-flight items to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(client *ipc.Client, store *queue.Store) error {
				var updated int64
				var err error
				if client != nil {
					var resp *ipc.QueueResetResponse
					if resp, err = client.QueueReset(); err == nil {
						updated = resp.Updated
					}
				} else {
					updated, err = store.ResetStuckProcessing(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d items\n", updated)
				return nil
			})
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show queue health summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(client *ipc.Client, store *queue.Store) error {
				var health queue.HealthSummary
				if client != nil {
					resp, err := client.QueueHealth()
					if err != nil {
						return err
					}
					health = queue.HealthSummary{
						Total:      resp.Total,
						Pending:    resp.Pending,
						Detecting:  resp.Detecting,
						Processing: resp.Processing,
						Completed:  resp.Completed,
						Failed:     resp.Failed,
						Skipped:    resp.Skipped,
					}
				} else {
					var err error
					health, err = store.Health(cmd.Context())
					if err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(),
					"Total: %d\nPending: %d\nDetecting: %d\nProcessing: %d\nCompleted: %d\nFailed: %d\nSkipped: %d\n",
					health.Total, health.Pending, health.Detecting, health.Processing,
					health.Completed, health.Failed, health.Skipped)
				return nil
			})
		},
	}
}

func newQueueDBHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "db-health",
		Short: "Show queue database diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(client *ipc.Client, store *queue.Store) error {
				var health queue.DatabaseHealth
				if client != nil {
					resp, err := client.DatabaseHealth()
					if err != nil && resp == nil {
						return err
					}
					if resp != nil {
						health = queue.DatabaseHealth{
							DBPath:           resp.DBPath,
							DatabaseExists:   resp.DatabaseExists,
							DatabaseReadable: resp.DatabaseReadable,
							TableExists:      resp.TableExists,
							MissingColumns:   resp.MissingColumns,
							IntegrityCheck:   resp.IntegrityCheck,
							TotalItems:       resp.TotalItems,
							Error:            resp.Error,
						}
					}
				} else {
					var err error
					health, err = store.CheckHealth(cmd.Context())
					if err != nil && health.Error == "" {
						return err
					}
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database: %s\n", health.DBPath)
				fmt.Fprintf(out, "Exists: %s\n", yesNo(health.DatabaseExists))
				fmt.Fprintf(out, "Readable: %s\n", yesNo(health.DatabaseReadable))
				fmt.Fprintf(out, "Table present: %s\n", yesNo(health.TableExists))
				if len(health.MissingColumns) > 0 {
					fmt.Fprintf(out, "Missing columns: %v\n", health.MissingColumns)
				}
				fmt.Fprintf(out, "Integrity: %s\n", yesNo(health.IntegrityCheck))
				fmt.Fprintf(out, "Items: %d\n", health.TotalItems)
				if health.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", health.Error)
				}
				return nil
			})
		},
	}
}

func parseItemID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", value)
	}
	return id, nil
}

func parseItemIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseItemID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
