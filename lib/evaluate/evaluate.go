// Package evaluate sends acquired clips to an OpenAI-compatible
// transcription endpoint and scores the transcripts against the ledger
// lines. It is a downstream consumer of the ledger and files, not part of
// the acquisition pipeline.
package evaluate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"clipharvest/lib/clipledger"
	"clipharvest/lib/telemetry"
	"clipharvest/lib/textutil"

	"github.com/antzucaro/matchr"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("clipharvest.lib.evaluate")

type Options struct {
	// Endpoint is the API base url, e.g. https://api.openai.com or a
	// local server speaking the same protocol.
	Endpoint string
	ApiKey   string
	Model    string
}

type Client struct {
	http  *resty.Client
	model string
}

func NewClient(opts Options) *Client {
	client := resty.New()
	client.SetBaseURL(opts.Endpoint)
	if opts.ApiKey != "" {
		client.SetAuthToken(opts.ApiKey)
	}
	client.SetTimeout(time.Minute * 2)

	telemetry.InstrumentResty(client, "evaluate/http")

	model := opts.Model
	if model == "" {
		model = "whisper-1"
	}
	return &Client{
		http:  client,
		model: model,
	}
}

func (c *Client) Transcribe(ctx context.Context, wavPath string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:Transcribe")
	defer span.End()
	span.SetAttributes(attribute.String("file", filepath.Base(wavPath)))

	var out struct {
		Text string `json:"text"`
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetFile("file", wavPath).
		SetFormData(map[string]string{"model": c.model}).
		SetResult(&out).
		Post("/v1/audio/transcriptions")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transcription request failed")
		return "", err
	}
	if res.IsError() {
		err := fmt.Errorf("transcription endpoint returned status %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad status")
		return "", err
	}
	return out.Text, nil
}

// Score compares two renditions of a line: 1 is a perfect match, 0 shares
// nothing. Both sides are normalized before the edit distance so casing
// and punctuation do not count against the model.
func Score(expected, actual string) float64 {
	a := textutil.NormalizeSpeech(expected)
	b := textutil.NormalizeSpeech(actual)
	if a == "" && b == "" {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	dist := matchr.Levenshtein(a, b)
	score := 1 - float64(dist)/float64(longest)
	if score < 0 {
		return 0
	}
	return score
}

type Report struct {
	ClipId     int64
	Expected   string
	Transcript string
	Score      float64
	Err        string
}

// EvaluateLedger transcribes every clip the ledger knows about. Clips
// whose file is missing or whose request fails get a zero-score report
// with the error attached; the sweep never aborts on one bad clip.
func (c *Client) EvaluateLedger(ctx context.Context, ledger clipledger.Ledger, clipDir string) ([]Report, error) {
	ctx, span := tracer.Start(ctx, "client:EvaluateLedger")
	defer span.End()

	records, err := ledger.Read(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read ledger")
		return nil, err
	}

	var reports []Report
	for _, rec := range records {
		report := Report{ClipId: rec.Id, Expected: rec.Line}

		path := filepath.Join(clipDir, fmt.Sprintf("%02d.wav", rec.Id))
		if _, err := os.Stat(path); err != nil {
			report.Err = fmt.Sprintf("clip file missing: %s", path)
			slog.WarnContext(ctx, "skipping clip without file", "clip_id", rec.Id, "path", path)
			reports = append(reports, report)
			continue
		}

		transcript, err := c.Transcribe(ctx, path)
		if err != nil {
			report.Err = err.Error()
			slog.ErrorContext(ctx, "transcription failed", "clip_id", rec.Id, "error", err)
			reports = append(reports, report)
			continue
		}

		report.Transcript = transcript
		report.Score = Score(rec.Line, transcript)
		reports = append(reports, report)
	}
	return reports, nil
}
