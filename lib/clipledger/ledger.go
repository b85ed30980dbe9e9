// Package clipledger is the append-only record store for acquired clips.
// One CSV file, fixed header, one row per clip. Rows are never rewritten
// or reordered; a malformed row is skipped on read, never fatal.
package clipledger

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
)

// Header is the fixed column schema. External consumers key on these
// exact names, do not reorder.
var Header = []string{"id", "Actor Name", "Movie Name", "Line", "Duration"}

type Record struct {
	Id       int64
	Actor    string
	Movie    string
	Line     string
	Duration float64
}

type Ledger struct {
	path string
}

func New(path string) Ledger {
	return Ledger{path: path}
}

func (l Ledger) Path() string {
	return l.path
}

// Append writes exactly one row, creating the file with its header first
// when it does not exist yet. It returns only after the row is flushed
// and synced, so a crash after Append cannot lose the record.
func (l Ledger) Append(ctx context.Context, rec Record) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if stat.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return err
		}
	}
	err = w.Write([]string{
		strconv.FormatInt(rec.Id, 10),
		rec.Actor,
		rec.Movie,
		rec.Line,
		strconv.FormatFloat(rec.Duration, 'f', -1, 64),
	})
	if err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}

// preserveQuotedCRLF doubles the carriage return of every quoted "\r\n"
// so the csv reader's documented fold of "\r\n" into "\n" reconstructs
// the original bytes. Without it a line containing a Windows newline
// would not read back exactly as it was appended.
func preserveQuotedCRLF(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inQuotes := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(data) && data[i+1] == '"' {
				out = append(out, '"', '"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case inQuotes && c == '\r' && i+1 < len(data) && data[i+1] == '\n':
			out = append(out, '\r')
		}
		out = append(out, c)
	}
	return out
}

// Read returns every well-formed record in file order. Corrupt rows are
// logged and skipped: refusing to read would halt all future progress.
func (l Ledger) Read(ctx context.Context) ([]Record, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(preserveQuotedCRLF(data)))
	r.FieldsPerRecord = -1

	var records []Record
	sawHeader := false
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable ledger row", "ledger", l.path, "error", err)
			continue
		}
		if !sawHeader {
			sawHeader = true
			if len(row) > 0 && row[0] == Header[0] {
				continue
			}
		}

		rec, err := parseRow(row)
		if err != nil {
			slog.WarnContext(ctx, "skipping malformed ledger row", "ledger", l.path, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// MaxId returns the largest id among well-formed rows, 0 when the ledger
// is empty or missing.
func (l Ledger) MaxId(ctx context.Context) (int64, error) {
	records, err := l.Read(ctx)
	if err != nil {
		return 0, err
	}
	var max int64
	for _, rec := range records {
		if rec.Id > max {
			max = rec.Id
		}
	}
	return max, nil
}

func parseRow(row []string) (Record, error) {
	if len(row) != len(Header) {
		return Record{}, fmt.Errorf("expected %d fields, got %d", len(Header), len(row))
	}
	id, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("bad id %q: %w", row[0], err)
	}
	if id <= 0 {
		return Record{}, fmt.Errorf("id %d is not positive", id)
	}
	duration, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return Record{}, fmt.Errorf("bad duration %q: %w", row[4], err)
	}
	return Record{
		Id:       id,
		Actor:    row[1],
		Movie:    row[2],
		Line:     row[3],
		Duration: duration,
	}, nil
}
