package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scribeq/internal/ipc"
)

func buildQueueStatusRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func buildQueueListRows(items []ipc.QueueItem) [][]string {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]ipc.QueueItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Position == sorted[j].Position {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Position < sorted[j].Position
	})

	rows := make([][]string, 0, len(sorted))
	for _, item := range sorted {
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.Position),
			fmt.Sprintf("%d", item.ID),
			displayName(item),
			item.Kind,
			formatStatusLabel(item.Status),
			formatLanguage(item),
			formatProgress(item),
			formatCredits(item.CreditsUsed),
		})
	}
	return rows
}

func printItemDetails(cmd *cobra.Command, item ipc.QueueItem) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Item %d: %s\n", item.ID, displayName(item))
	fmt.Fprintf(out, "Source: %s\n", item.SourcePath)
	fmt.Fprintf(out, "Kind: %s\n", item.Kind)
	fmt.Fprintf(out, "Status: %s\n", formatStatusLabel(item.Status))
	fmt.Fprintf(out, "Position: %d\n", item.Position)
	if lang := formatLanguage(item); lang != "-" {
		fmt.Fprintf(out, "Language: %s\n", lang)
	}
	if item.SourceLanguage != "" {
		fmt.Fprintf(out, "Selected language: %s\n", item.SourceLanguage)
	}
	if item.Progress > 0 || item.ProgressMessage != "" {
		fmt.Fprintf(out, "Progress: %s\n", formatProgress(item))
	}
	if item.OutputPath != "" {
		fmt.Fprintf(out, "Output: %s\n", item.OutputPath)
	}
	if item.CreditsUsed > 0 {
		fmt.Fprintf(out, "Credits used: %s\n", formatCredits(item.CreditsUsed))
	}
	if item.ErrorMessage != "" {
		fmt.Fprintf(out, "Error: %s\n", item.ErrorMessage)
	}
	fmt.Fprintf(out, "Created: %s\n", item.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(out, "Updated: %s\n", item.UpdatedAt.UTC().Format(time.RFC3339))
}

func displayName(item ipc.QueueItem) string {
	if name := strings.TrimSpace(item.DisplayName); name != "" {
		return name
	}
	return item.SourcePath
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	return strings.ToUpper(status[:1]) + strings.ToLower(status[1:])
}

func formatLanguage(item ipc.QueueItem) string {
	switch {
	case item.DetectedLangName != "":
		return item.DetectedLangName
	case item.DetectedLangCode != "":
		return item.DetectedLangCode
	default:
		return "-"
	}
}

func formatProgress(item ipc.QueueItem) string {
	percent := fmt.Sprintf("%.0f%%", item.Progress)
	if msg := strings.TrimSpace(item.ProgressMessage); msg != "" {
		return fmt.Sprintf("%s %s", percent, msg)
	}
	return percent
}

func formatCredits(value float64) string {
	if value == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", value)
}
