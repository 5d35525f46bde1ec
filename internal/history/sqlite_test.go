package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"markethours/internal/domain"
)

func TestJournalRoundTrip(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer j.Close()

	ctx := context.Background()
	at := time.Date(2024, 1, 1, 17, 0, 1, 0, time.UTC)

	changes := []domain.StatusChange{
		{Symbol: "FX1", IsOpen: false, At: at},
		{Symbol: "FX2", IsOpen: true, At: at},
		{Symbol: "FX1", IsOpen: true, At: at.Add(16 * time.Hour)},
	}
	if err := j.Record(ctx, changes); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	got, err := j.Recent(ctx, "FX1", 10)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent returned %d rows, want 2", len(got))
	}
	// Newest first.
	if !got[0].IsOpen || got[0].At.Before(got[1].At) {
		t.Errorf("rows not ordered newest first: %+v", got)
	}
	if got[1].IsOpen {
		t.Errorf("oldest FX1 row should be a close: %+v", got[1])
	}
}

func TestJournalEmptyBatch(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer j.Close()

	if err := j.Record(context.Background(), nil); err != nil {
		t.Errorf("Record(nil) returned error: %v", err)
	}
}

func TestJournalRecentLimit(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer j.Close()

	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := j.Record(ctx, []domain.StatusChange{
			{Symbol: "R_10", IsOpen: i%2 == 0, At: base.Add(time.Duration(i) * time.Hour)},
		})
		if err != nil {
			t.Fatalf("Record returned error: %v", err)
		}
	}

	got, err := j.Recent(ctx, "R_10", 3)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Recent returned %d rows, want 3", len(got))
	}
}
