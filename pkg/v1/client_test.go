package v1

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func setupClientTest(t *testing.T, opts ...Option) (*Client, string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	indexPath := filepath.Join(t.TempDir(), "index")
	client, err := New(append([]Option{WithIndexPath(indexPath)}, opts...)...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return client, indexPath
}

func TestClientBootstrapsIndex(t *testing.T) {
	client, indexPath := setupClientTest(t)
	ctx := context.Background()

	status, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Entries != 3 {
		t.Errorf("entries = %d, want 3", status.Entries)
	}
	if status.Location != indexPath || status.Format != "bundle" {
		t.Errorf("location=%q format=%q", status.Location, status.Format)
	}
	if _, err := os.Stat(filepath.Join(indexPath, "manifest.json")); err != nil {
		t.Errorf("bootstrapped index not persisted: %v", err)
	}
}

func TestClientQueryAndAppend(t *testing.T) {
	client, _ := setupClientTest(t, WithFallbackDocuments(
		Document{Source: "standup.txt", Content: "Standup ran long, people were frustrated."},
		Document{Source: "lunch.txt", Content: "Team lunch was great fun."},
	))
	ctx := context.Background()

	n, err := client.Append(ctx, Document{Source: "upload.txt", Content: "Team burnout after back-to-back meetings."})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if n != 1 {
		t.Errorf("appended %d chunks, want 1", n)
	}

	hits, err := client.Query(ctx, "burnout", 1)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hits) != 1 || hits[0].Source != "upload.txt" {
		t.Fatalf("unexpected hits: %+v", hits)
	}
	if hits[0].SentimentLabel != LabelNegative {
		t.Errorf("label = %q, want negative", hits[0].SentimentLabel)
	}

	combined, err := client.CombinedQuery(ctx, "burnout", "", 1)
	if err != nil {
		t.Fatalf("combined query: %v", err)
	}
	if combined[0] != hits[0] {
		t.Errorf("blank auxiliary changed the result: %+v vs %+v", combined[0], hits[0])
	}

	if _, err := client.Query(ctx, "", 3); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestClientPersistsAcrossInstances(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	ctx := context.Background()
	indexPath := filepath.Join(t.TempDir(), "notes.db")

	first, err := New(WithIndexPath(indexPath), WithChunking(50, 5))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := first.Append(ctx, Document{Source: "a.txt", Content: "Budget review moved to next week."}); err != nil {
		t.Fatalf("append: %v", err)
	}
	want, _ := first.Status(ctx)
	_ = first.Close()

	second, err := New(WithIndexPath(indexPath))
	if err != nil {
		t.Fatalf("reopen client: %v", err)
	}
	defer second.Close()

	got, err := second.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got != want {
		t.Errorf("status after reopen = %+v, want %+v", got, want)
	}
	if got.Format != "sqlite" {
		t.Errorf("format = %q, want sqlite", got.Format)
	}
}

func TestClientCustomClassifier(t *testing.T) {
	client, _ := setupClientTest(t, WithClassifier(ClassifierFunc(func(string) float64 { return 0.5 })))

	hits, err := client.Query(context.Background(), "meeting", 2)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	for _, h := range hits {
		if h.SentimentLabel != LabelPositive {
			t.Errorf("label = %q, want positive", h.SentimentLabel)
		}
	}
}
