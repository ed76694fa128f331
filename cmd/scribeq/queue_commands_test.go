package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"scribeq/internal/classify"
	"scribeq/internal/ipc"
	"scribeq/internal/testsupport"
)

func TestQueueListRendersSeededItems(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	subtitle := testsupport.NewFile(t, env.store, "/media/movie.srt", classify.KindTranslation)
	subtitle.DetectedLangCode = "de"
	subtitle.DetectedLangName = "German"
	subtitle.CreditsUsed = 1.25
	if err := env.store.Update(ctx, subtitle); err != nil {
		t.Fatalf("Update: %v", err)
	}
	testsupport.NewFile(t, env.store, "/media/song.mp3", classify.KindTranscription)

	out, _, err := runCLI(t, []string{"queue", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "movie.srt")
	requireContains(t, out, "song.mp3")
	requireContains(t, out, "German")
	requireContains(t, out, "1.25")
	requireContains(t, out, "Pending")
}

func TestQueueListEmptyQueue(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"queue", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Queue is empty")
}

func TestQueueListJSONOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.NewFile(t, env.store, "/media/movie.srt", classify.KindTranslation)

	out, _, err := runCLI(t, []string{"queue", "list", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list --json: %v", err)
	}

	var items []ipc.QueueItem
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %v", items)
	}
	if items[0].SourcePath != "/media/movie.srt" || items[0].Status != "pending" {
		t.Fatalf("unexpected item: %+v", items[0])
	}
}

func TestQueueShowPrintsItemDetails(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	item := testsupport.NewFile(t, env.store, "/media/movie.srt", classify.KindTranslation)
	item.DetectedLangCode = "fr"
	item.DetectedLangName = "French"
	item.ErrorMessage = "translation: quota exceeded"
	if err := env.store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "show", fmt.Sprintf("%d", item.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue show: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Item %d", item.ID))
	requireContains(t, out, "Source: /media/movie.srt")
	requireContains(t, out, "Status: Pending")
	requireContains(t, out, "Language: French")
	requireContains(t, out, "Error: translation: quota exceeded")
}

func TestQueueShowJSONOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	item := testsupport.NewFile(t, env.store, "/media/song.mp3", classify.KindTranscription)

	out, _, err := runCLI(t, []string{"queue", "show", fmt.Sprintf("%d", item.ID), "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue show --json: %v", err)
	}

	var decoded ipc.QueueItem
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if decoded.ID != item.ID || decoded.Kind != string(classify.KindTranscription) {
		t.Fatalf("unexpected item: %+v", decoded)
	}
}

func TestQueueShowRejectsInvalidID(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"queue", "show", "zero"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "invalid item id") {
		t.Fatalf("expected invalid id error, got %v", err)
	}
}

func TestQueueRemoveReportsPerItem(t *testing.T) {
	env := setupCLITestEnv(t)
	item := testsupport.NewFile(t, env.store, "/media/movie.srt", classify.KindTranslation)

	out, _, err := runCLI(t,
		[]string{"queue", "remove", fmt.Sprintf("%d", item.ID), "99"},
		env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Removed item %d", item.ID))
	requireContains(t, out, "Item 99 not found")

	remaining, err := env.store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("queue should be empty, got %v", remaining)
	}
}
