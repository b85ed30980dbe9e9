package acquire

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"clipharvest/lib/clipledger"
	"clipharvest/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func writeClipFile(t *testing.T, dir, name string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, name), []byte("riff"), 0o644)
	if err != nil {
		t.Fatal(err)
	}
}

func TestNextIdEmptyStores(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:acquire")
	defer cleanup()

	dir := t.TempDir()
	ledger := clipledger.New(filepath.Join(dir, "data.csv"))

	id, err := NextId(context.Background(), ledger, filepath.Join(dir, "Lines"))
	require.NoError(t, err)
	require.Equal(t, int64(1), id)
}

func TestNextIdReconcilesUnion(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	ledger := clipledger.New(filepath.Join(dir, "data.csv"))
	clipDir := filepath.Join(dir, "Lines")
	require.NoError(t, os.MkdirAll(clipDir, 0o755))

	// ledger ahead of the directory: a crash lost the file move
	require.NoError(t, ledger.Append(ctx, clipledger.Record{Id: 5, Actor: "a", Movie: "m", Line: "l"}))
	id, err := NextId(ctx, ledger, clipDir)
	require.NoError(t, err)
	require.Equal(t, int64(6), id)

	// directory ahead of the ledger: a crash lost the append
	writeClipFile(t, clipDir, "09.wav")
	id, err = NextId(ctx, ledger, clipDir)
	require.NoError(t, err)
	require.Equal(t, int64(10), id)
}

func TestNextIdSkipsUnparsableNames(t *testing.T) {
	dir := t.TempDir()
	clipDir := filepath.Join(dir, "Lines")
	require.NoError(t, os.MkdirAll(clipDir, 0o755))
	writeClipFile(t, clipDir, "02.wav")
	writeClipFile(t, clipDir, "notes.txt")
	writeClipFile(t, clipDir, "-7.wav")
	writeClipFile(t, clipDir, "03_noisy.wav")

	ledger := clipledger.New(filepath.Join(dir, "data.csv"))
	id, err := NextId(context.Background(), ledger, clipDir)
	require.NoError(t, err)
	require.Equal(t, int64(3), id)
}

func TestNextIdIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	clipDir := filepath.Join(dir, "Lines")
	require.NoError(t, os.MkdirAll(clipDir, 0o755))
	writeClipFile(t, clipDir, "04.wav")
	ledger := clipledger.New(filepath.Join(dir, "data.csv"))

	first, err := NextId(ctx, ledger, clipDir)
	require.NoError(t, err)
	second, err := NextId(ctx, ledger, clipDir)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, int64(5), first)
}
