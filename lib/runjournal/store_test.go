package runjournal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "journal.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestJournalRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	started := time.Unix(1700000000, 0)
	ok := Outcome{
		Target:     "https://clip.cafe/one/",
		Stage:      "done",
		ClipId:     1,
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
	}
	failed := Outcome{
		Target:     "https://clip.cafe/two/",
		Stage:      "extract",
		Error:      `required field "work" missing from page`,
		StartedAt:  started.Add(5 * time.Second),
		FinishedAt: started.Add(6 * time.Second),
	}
	require.NoError(t, store.Record(ctx, ok))
	require.NoError(t, store.Record(ctx, failed))

	outcomes, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	// newest first
	require.Equal(t, failed, outcomes[0])
	require.Equal(t, ok, outcomes[1])
}

func TestJournalRecentHonorsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := store.Record(ctx, Outcome{
			Target:     "https://clip.cafe/x/",
			Stage:      "done",
			ClipId:     int64(i + 1),
			StartedAt:  time.Unix(1700000000+int64(i), 0),
			FinishedAt: time.Unix(1700000001+int64(i), 0),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	outcomes, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	require.Equal(t, int64(5), outcomes[0].ClipId)
	require.Equal(t, int64(4), outcomes[1].ClipId)
}

func TestJournalEmpty(t *testing.T) {
	store := newTestStore(t)

	outcomes, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, outcomes)
}
