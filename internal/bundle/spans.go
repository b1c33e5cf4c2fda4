package bundle

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/phxport/phxport/internal/constants"
	"github.com/phxport/phxport/internal/errors"
	"github.com/phxport/phxport/internal/phoenix"
)

// spanRow is the flat columnar representation of a span. Attributes keep
// arbitrary nesting, so they are carried as a JSON string column rather
// than exploded into per-key columns.
type spanRow struct {
	SpanID         string `parquet:"span_id" json:"span_id"`
	TraceID        string `parquet:"trace_id" json:"trace_id"`
	ParentID       string `parquet:"parent_id,optional" json:"parent_id,omitempty"`
	Name           string `parquet:"name" json:"name"`
	SpanKind       string `parquet:"span_kind" json:"span_kind"`
	StartTimeMicro int64  `parquet:"start_time_us,timestamp(microsecond)" json:"start_time_us"`
	EndTimeMicro   int64  `parquet:"end_time_us,timestamp(microsecond)" json:"end_time_us"`
	StatusCode     string `parquet:"status_code,optional" json:"status_code,omitempty"`
	StatusMessage  string `parquet:"status_message,optional" json:"status_message,omitempty"`
	AttributesJSON string `parquet:"attributes_json,optional" json:"attributes_json,omitempty"`
}

func toRow(span phoenix.Span) (spanRow, error) {
	row := spanRow{
		SpanID:         span.SpanID,
		TraceID:        span.TraceID,
		ParentID:       span.ParentID,
		Name:           span.Name,
		SpanKind:       span.SpanKind,
		StartTimeMicro: span.StartTime.UnixMicro(),
		EndTimeMicro:   span.EndTime.UnixMicro(),
		StatusCode:     span.StatusCode,
		StatusMessage:  span.StatusMessage,
	}
	if len(span.Attributes) > 0 {
		data, err := json.Marshal(span.Attributes)
		if err != nil {
			return spanRow{}, errors.Wrapf(err, "failed to encode attributes of span %s", span.SpanID)
		}
		row.AttributesJSON = string(data)
	}
	return row, nil
}

func fromRow(row spanRow) (phoenix.Span, error) {
	span := phoenix.Span{
		SpanID:        row.SpanID,
		TraceID:       row.TraceID,
		ParentID:      row.ParentID,
		Name:          row.Name,
		SpanKind:      row.SpanKind,
		StartTime:     time.UnixMicro(row.StartTimeMicro).UTC(),
		EndTime:       time.UnixMicro(row.EndTimeMicro).UTC(),
		StatusCode:    row.StatusCode,
		StatusMessage: row.StatusMessage,
	}
	if row.AttributesJSON != "" {
		if err := json.Unmarshal([]byte(row.AttributesJSON), &span.Attributes); err != nil {
			return phoenix.Span{}, errors.Wrapf(errors.ErrBundleCorrupted, "span %s has invalid attributes: %v", row.SpanID, err)
		}
	}
	return span, nil
}

// SpanFileName returns the trace file name for a codec.
func SpanFileName(codec string) (string, error) {
	switch codec {
	case constants.CodecParquet:
		return constants.TracesFileName, nil
	case constants.CodecJSONL:
		return constants.TracesJSONLFileName, nil
	default:
		return "", errors.Wrapf(errors.ErrUnsupportedCodec, "%q", codec)
	}
}

// WriteSpans writes spans into dir using the given codec and returns the
// file path written. An empty span slice still produces a file so a
// re-import can tell "no spans" apart from "traces step skipped".
func WriteSpans(dir string, spans []phoenix.Span, codec string) (string, error) {
	name, err := SpanFileName(codec)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", errors.Wrapf(err, "failed to create directory %s", dir)
	}

	rows := make([]spanRow, 0, len(spans))
	for _, span := range spans {
		row, err := toRow(span)
		if err != nil {
			return "", err
		}
		rows = append(rows, row)
	}

	switch codec {
	case constants.CodecParquet:
		err = writeParquet(path, rows)
	case constants.CodecJSONL:
		err = writeJSONL(path, rows)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

// ReadSpans reads the trace file of a project directory, trying the parquet
// file first and the jsonl file second.
func ReadSpans(dir string) ([]phoenix.Span, error) {
	parquetPath := filepath.Join(dir, constants.TracesFileName)
	if _, err := os.Stat(parquetPath); err == nil {
		return readParquet(parquetPath)
	}

	jsonlPath := filepath.Join(dir, constants.TracesJSONLFileName)
	if _, err := os.Stat(jsonlPath); err == nil {
		return readJSONL(jsonlPath)
	}

	return nil, errors.Wrapf(errors.ErrBundleIncomplete, "no trace file in %s", dir)
}

func writeParquet(path string, rows []spanRow) error {
	tmp := path + ".tmp"
	if err := parquet.WriteFile(tmp, rows); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "failed to move %s into place", path)
	}
	return nil
}

func readParquet(path string) ([]phoenix.Span, error) {
	rows, err := parquet.ReadFile[spanRow](path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrBundleCorrupted, "%s: %v", path, err)
	}
	return rowsToSpans(rows)
}

func writeJSONL(path string, rows []spanRow) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp) //nolint:gosec // Bundle paths are derived from slugs
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return errors.Wrapf(err, "failed to write %s", path)
		}
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "failed to flush %s", path)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "failed to close %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "failed to move %s into place", path)
	}
	return nil
}

func readJSONL(path string) ([]phoenix.Span, error) {
	f, err := os.Open(path) //nolint:gosec // Bundle paths are derived from slugs
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer func() { _ = f.Close() }()

	var rows []spanRow
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var row spanRow
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, errors.Wrapf(errors.ErrBundleCorrupted, "%s: %v", path, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return rowsToSpans(rows)
}

func rowsToSpans(rows []spanRow) ([]phoenix.Span, error) {
	spans := make([]phoenix.Span, 0, len(rows))
	for _, row := range rows {
		span, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		spans = append(spans, span)
	}
	return spans, nil
}
