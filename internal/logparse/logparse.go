package logparse

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Delim is the literal separator between timestamp, level and message.
const Delim = " - "

var ErrInvalidUTF8 = errors.New("logparse: input is not valid UTF-8")

// Record is one structured log entry. Timestamp and Level are opaque
// tokens copied verbatim from the source line.
type Record struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

type SkipReason string

const (
	SkipNoDelimiter SkipReason = "no_delimiter"
	SkipMalformed   SkipReason = "malformed"
	SkipEmpty       SkipReason = "empty"
)

// SkippedLine records why a line was excluded from the parse result.
type SkippedLine struct {
	Line   int        `json:"line"`
	Reason SkipReason `json:"reason"`
}

type Result struct {
	Records []Record      `json:"records"`
	Skipped []SkippedLine `json:"skipped,omitempty"`
}

// Parse turns raw upload bytes into structured records. Lines without two
// occurrences of Delim are dropped and reported in Skipped; the only fatal
// condition is non-UTF-8 input, which rejects the whole upload.
func Parse(raw []byte) (Result, error) {
	if !utf8.Valid(raw) {
		return Result{}, ErrInvalidUTF8
	}
	var res Result
	for i, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			res.Skipped = append(res.Skipped, SkippedLine{Line: i + 1, Reason: SkipEmpty})
			continue
		}
		if !strings.Contains(line, Delim) {
			res.Skipped = append(res.Skipped, SkippedLine{Line: i + 1, Reason: SkipNoDelimiter})
			continue
		}
		parts := strings.SplitN(line, Delim, 3)
		if len(parts) < 3 {
			res.Skipped = append(res.Skipped, SkippedLine{Line: i + 1, Reason: SkipMalformed})
			continue
		}
		res.Records = append(res.Records, Record{
			Timestamp: parts[0],
			Level:     parts[1],
			Message:   parts[2],
		})
	}
	return res, nil
}

// Note builds a singleton record directly from free text, bypassing line
// splitting. Used for pasted notes and extracted document text.
func Note(text string) Record {
	return Record{
		Timestamp: time.Now().Format("2006-01-02 15:04:05"),
		Level:     "INFO",
		Message:   text,
	}
}
