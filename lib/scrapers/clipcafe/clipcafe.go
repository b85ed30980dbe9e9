// Package clipcafe extracts clip metadata from rendered clip.cafe pages.
// Extraction is pure: markup in, fields out, no network.
package clipcafe

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"clipharvest/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// UnknownActor is the sentinel used when no actor reference exists
// anywhere on the page. Tests assert on it, do not change casually.
const UnknownActor = "Unknown"

// NoDuration is the sentinel for pages that never mention a clip length.
// Duration is best-effort data, its absence is not an error.
const NoDuration = 0.0

type Metadata struct {
	Actor    string
	Work     string
	Line     string
	Duration float64
}

// MissingFieldError reports a required field that could not be located in
// the markup. Extraction is never silently partial on required fields.
type MissingFieldError struct {
	Field string
}

func (e MissingFieldError) Error() string {
	return fmt.Sprintf("required field %q missing from page", e.Field)
}

var durationRegex = regexp.MustCompile(`(?i)(\d{1,3}(?:\.\d+)?)\s*secs?`)

// Extract parses a rendered clip page into its metadata fields.
// The work title and the spoken line are required, everything else
// degrades to a named sentinel.
func Extract(ctx context.Context, markup string) (Metadata, error) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(bytes.NewBufferString(markup))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return Metadata{}, err
	}

	work := htmlutil.CleanText(doc.Find("a.white.pl-10").First().Text())
	if work == "" {
		err := MissingFieldError{Field: "work"}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Metadata{}, err
	}

	character, actor := findSpeaker(doc)

	quote := doc.Find("div.highlight-box").First()
	line := htmlutil.CleanText(quote.Text())
	if line == "" {
		err := MissingFieldError{Field: "line"}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Metadata{}, err
	}
	line = stripSpeakerPrefix(line, character)

	span.SetAttributes(
		attribute.String("actor", actor),
		attribute.String("work", work),
	)
	return Metadata{
		Actor:    actor,
		Work:     work,
		Line:     line,
		Duration: parseDuration(markup),
	}, nil
}

// findSpeaker locates the character label and the performing actor. The
// cast block names both; without it the highlight box's bold label serves
// as both, and a page with neither yields the UnknownActor sentinel.
func findSpeaker(doc *goquery.Document) (character, actor string) {
	cast := doc.Find("div.movieCastActor").First()
	if cast.Length() > 0 {
		character = htmlutil.CleanText(cast.Find("b").First().Text())
		actor = htmlutil.CleanText(cast.Find("a").First().Text())
		if actor != "" {
			return character, actor
		}
	}

	character = htmlutil.CleanText(doc.Find("div.highlight-box b").First().Text())
	if character != "" {
		return character, character
	}
	return "", UnknownActor
}

// stripSpeakerPrefix drops a leading "speaker: " label from the quote when
// the recognized character precedes it; otherwise the text is verbatim.
func stripSpeakerPrefix(line, character string) string {
	if character == "" {
		return line
	}
	prefix := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(character) + `\s*:\s*`)
	return prefix.ReplaceAllString(line, "")
}

func parseDuration(markup string) float64 {
	groups := durationRegex.FindStringSubmatch(markup)
	if len(groups) < 2 {
		return NoDuration
	}
	seconds, err := strconv.ParseFloat(groups[1], 64)
	if err != nil {
		return NoDuration
	}
	return seconds
}

// Selectors are the page controls the orchestrator drives. They live here
// so the acquisition core stays free of site specifics.
type Selectors struct {
	// ContentReady must be present before extraction makes sense.
	ContentReady string
	// DownloadButton opens the download dialog.
	DownloadButton string
	// FormatOption picks the wav container inside the dialog.
	FormatOption string
	// ConfirmButton submits the dialog and starts the download.
	ConfirmButton string
	// LoginPrompt reappearing means the session expired.
	LoginPrompt string
	// Overlays are dismissable elements known to obscure the controls.
	Overlays []string
}

func DefaultSelectors() Selectors {
	return Selectors{
		ContentReady:   "div.highlight-box",
		DownloadButton: "button[aria-label='Download Clip']",
		FormatOption:   "input#audio-wav",
		ConfirmButton:  "button.orangeButton[type='submit']",
		LoginPrompt:    "form#loginform",
		Overlays: []string{
			"div.modal-backdrop",
			"div#cookie-consent",
		},
	}
}

// ClearOverlayScript removes a known overlay from the DOM so an obscured
// control cannot swallow clicks.
func ClearOverlayScript(selector string) string {
	return fmt.Sprintf(
		`document.querySelectorAll(%s).forEach((el) => el.remove());`,
		strconv.Quote(selector),
	)
}

// LandingUrl is where interactive login happens on first run.
const LandingUrl = "https://clip.cafe"

// IsClipUrl reports whether a target plausibly points at a clip page.
func IsClipUrl(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}
