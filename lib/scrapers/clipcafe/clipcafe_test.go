package clipcafe

import (
	"context"
	"errors"
	"testing"

	"clipharvest/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const fullPage = `
<html><body>
<div class="movieCastActor"><b>Jordan Belfort</b> performed by <a href="/actor">Leonardo DiCaprio</a></div>
<a class="white pl-10" href="/movie">The Wolf of Wall Street</a>
<div class="highlight-box"><b>Jordan Belfort</b>: I've been a rich man and I've been a poor man.</div>
<span>7.5 secs</span>
</body></html>`

const fallbackPage = `
<html><body>
<a class="white pl-10" href="/movie">Casablanca</a>
<div class="highlight-box"><b>Rick</b>: Here's looking at you, kid.</div>
</body></html>`

const anonymousPage = `
<html><body>
<a class="white pl-10" href="/movie">Koyaanisqatsi</a>
<div class="highlight-box">No dialogue, only music.</div>
</body></html>`

func TestExtractFullPage(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:clipcafe")
	defer cleanup()

	meta, err := Extract(context.Background(), fullPage)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "Leonardo DiCaprio", meta.Actor)
	require.Equal(t, "The Wolf of Wall Street", meta.Work)
	require.Equal(t, "I've been a rich man and I've been a poor man.", meta.Line)
	require.Equal(t, 7.5, meta.Duration)
}

func TestExtractFallsBackToHighlightSpeaker(t *testing.T) {
	meta, err := Extract(context.Background(), fallbackPage)
	if err != nil {
		t.Fatal(err)
	}
	// without a cast block the character label doubles as the actor
	require.Equal(t, "Rick", meta.Actor)
	require.Equal(t, "Here's looking at you, kid.", meta.Line)
	require.Equal(t, NoDuration, meta.Duration)
}

func TestExtractUnknownActorSentinel(t *testing.T) {
	meta, err := Extract(context.Background(), anonymousPage)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, UnknownActor, meta.Actor)
	// no recognized speaker label, the text stays verbatim
	require.Equal(t, "No dialogue, only music.", meta.Line)
}

func TestExtractMissingWorkIsHardError(t *testing.T) {
	page := `<html><body><div class="highlight-box">Some line.</div></body></html>`
	_, err := Extract(context.Background(), page)

	var missing MissingFieldError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "work", missing.Field)
}

func TestExtractMissingLineIsHardError(t *testing.T) {
	page := `<html><body><a class="white pl-10">A Movie</a></body></html>`
	_, err := Extract(context.Background(), page)

	var missing MissingFieldError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "line", missing.Field)
}

func TestStripSpeakerPrefixIsCaseInsensitive(t *testing.T) {
	require.Equal(t, "hello.", stripSpeakerPrefix("RICK : hello.", "Rick"))
	require.Equal(t, "no label here", stripSpeakerPrefix("no label here", "Rick"))
	require.Equal(t, "kept verbatim", stripSpeakerPrefix("kept verbatim", ""))
}

func TestParseDuration(t *testing.T) {
	require.Equal(t, 12.0, parseDuration("lasts 12 secs"))
	require.Equal(t, 0.5, parseDuration("0.5 sec"))
	require.Equal(t, NoDuration, parseDuration("no length advertised"))
}
