package uploads

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// CSVExporter writes entries as CSV.
type CSVExporter struct {
	// IncludeHeader writes a header row.
	IncludeHeader bool

	// Extended adds table, dataset, chat user and timestamp columns after
	// the four upload log columns.
	Extended bool
}

// Export writes entries to w.
func (e *CSVExporter) Export(w io.Writer, entries []Entry) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(e.header()); err != nil {
			return fmt.Errorf("failed to write csv header: %w", err)
		}
	}
	for _, entry := range entries {
		if err := writer.Write(e.row(entry)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func (e *CSVExporter) header() []string {
	h := []string{"annotation_id", "segment_id", "annotation", "user_id"}
	if e.Extended {
		h = append(h, "table", "dataset", "chat_user", "created_at")
	}
	return h
}

func (e *CSVExporter) row(entry Entry) []string {
	r := []string{
		strconv.FormatInt(entry.AnnotationID, 10),
		strconv.FormatUint(entry.Segment, 10),
		entry.Annotation,
		strconv.FormatInt(entry.UserID, 10),
	}
	if e.Extended {
		r = append(r, entry.Table, entry.Dataset, entry.ChatUser, entry.CreatedAt.Format(time.RFC3339))
	}
	return r
}
