package archive

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/askdb/askdb/internal/history"
)

type parquetEntry struct {
	HistoryID       int64  `parquet:"history_id"`
	Question        string `parquet:"question"`
	SQL             string `parquet:"sql_text"`
	Status          string `parquet:"status"`
	ErrorMessage    string `parquet:"error_message"`
	RowCount        int64  `parquet:"row_count"`
	ExplainOK       bool   `parquet:"explain_ok"`
	DurationMs      int64  `parquet:"duration_ms"`
	CreatedAtUnixMs int64  `parquet:"created_at_unix_ms"`
}

// Encode writes entries as a single Parquet file.
func Encode(entries []history.Entry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("entries are required")
	}

	rows := make([]parquetEntry, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, parquetEntry{
			HistoryID:       entry.ID,
			Question:        entry.Question,
			SQL:             entry.SQL,
			Status:          string(entry.Status),
			ErrorMessage:    entry.Error,
			RowCount:        int64(entry.RowCount),
			ExplainOK:       entry.ExplainOK,
			DurationMs:      entry.DurationMs,
			CreatedAtUnixMs: entry.CreatedAt.UnixMilli(),
		})
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[parquetEntry](buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

func Decode(data []byte) ([]history.Entry, error) {
	reader := parquet.NewGenericReader[parquetEntry](bytes.NewReader(data))
	defer func() { _ = reader.Close() }()

	rows := make([]parquetEntry, reader.NumRows())
	read := 0
	for read < len(rows) {
		n, err := reader.Read(rows[read:])
		read += n
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet rows: %w", err)
		}
	}

	entries := make([]history.Entry, 0, read)
	for _, row := range rows[:read] {
		entries = append(entries, history.Entry{
			ID:         row.HistoryID,
			Question:   row.Question,
			SQL:        row.SQL,
			Status:     history.Status(row.Status),
			Error:      row.ErrorMessage,
			RowCount:   int(row.RowCount),
			ExplainOK:  row.ExplainOK,
			DurationMs: row.DurationMs,
			CreatedAt:  time.UnixMilli(row.CreatedAtUnixMs).UTC(),
		})
	}
	return entries, nil
}
