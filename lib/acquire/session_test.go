package acquire

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"clipharvest/lib/browser"
	"clipharvest/lib/browser/browsertest"

	"github.com/stretchr/testify/require"
)

func TestSessionRestoreMissingBlob(t *testing.T) {
	store := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
	fake := &browsertest.Fake{}

	state, err := store.Restore(context.Background(), fake)
	require.NoError(t, err)
	require.Equal(t, NoSession, state)
}

func TestSessionCaptureRestoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewSessionStore(path)
	ctx := context.Background()

	cookies := []browser.Cookie{
		{Name: "sid", Value: "secret-value", Domain: "clip.cafe", Path: "/", Expires: time.Now().Add(time.Hour).Unix()},
		{Name: "pref", Value: "dark", Domain: "clip.cafe", Path: "/"},
	}
	first := &browsertest.Fake{}
	require.NoError(t, first.SetCookies(ctx, cookies))
	require.NoError(t, store.Capture(ctx, first))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	second := &browsertest.Fake{}
	state, err := store.Restore(ctx, second)
	require.NoError(t, err)
	require.Equal(t, Authenticated, state)

	restored, err := second.Cookies(ctx)
	require.NoError(t, err)
	require.Equal(t, cookies, restored)
}

func TestSessionRestoreCorruptBlobFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := NewSessionStore(path)
	state, err := store.Restore(context.Background(), &browsertest.Fake{})
	require.NoError(t, err)
	require.Equal(t, NoSession, state)
}

func TestInteractiveLoginCapturesAfterGrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewSessionStore(path)
	ctx := context.Background()

	fake := &browsertest.Fake{
		Pages: map[string]string{"https://clip.cafe": "<html><body>landing</body></html>"},
	}
	// the human "logs in" by the time the grace window expires
	require.NoError(t, fake.SetCookies(ctx, []browser.Cookie{{Name: "sid", Value: "v", Domain: "clip.cafe", Path: "/"}}))

	err := store.InteractiveLogin(ctx, fake, "https://clip.cafe", 20*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, "https://clip.cafe", fake.Current)

	_, err = os.Stat(path)
	require.NoError(t, err)
}
