// package formatter renders retrieval history in various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/trackrip/internal/models"
	"github.com/desertthunder/trackrip/internal/shared"
)

// Supported history formats
const (
	FormatPlain    = "plain"
	FormatCSV      = "csv"
	FormatMarkdown = "md"
)

// Formats lists the names accepted by [Export].
var Formats = []string{FormatPlain, FormatCSV, FormatMarkdown}

const timeLayout = "2006-01-02 15:04"

// ExportToCSV converts retrievals to CSV with columns: ID, Sequence, Requested, Track, Name, Artists, Album, Format, Mode, Size, Destination, Retrieved
func ExportToCSV(rows []*models.Retrieval) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Sequence", "Requested", "Track", "Name", "Artists", "Album", "Format", "Mode", "Size", "Destination", "Retrieved"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.ID(),
			strconv.Itoa(r.Sequence()),
			r.Requested(),
			r.TrackID(),
			r.Name(),
			r.ArtistLine(),
			r.Album(),
			r.Format(),
			string(r.Mode()),
			strconv.Itoa(r.Size()),
			r.Destination(),
			r.CreatedAt().UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts retrievals to a Markdown table
func ExportToMarkdown(rows []*models.Retrieval) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Retrieval History\n\n")
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(rows)))

	if len(rows) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Track | Album | Format | Mode | Destination | Retrieved |\n")
	buf.WriteString("|---|---|---|---|---|---|---|\n")
	for _, r := range rows {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s | %s |\n",
			r.Sequence(),
			escapeCell(title(r)),
			escapeCell(r.Album()),
			r.Format(),
			r.Mode(),
			escapeCell(r.Destination()),
			r.CreatedAt().Format(timeLayout),
		))
	}

	return buf.Bytes(), nil
}

// ExportToText converts retrievals to plain text, one line each
func ExportToText(rows []*models.Retrieval) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Retrievals: %d\n\n", len(rows)))
	for _, r := range rows {
		buf.WriteString(fmt.Sprintf("%d. %s [%s] -> %s (%s, id %s)\n",
			r.Sequence(), title(r), r.Format(), r.Destination(), r.CreatedAt().Format(timeLayout), r.ID()))
	}

	return buf.Bytes(), nil
}

// Export renders rows in the named format.
func Export(rows []*models.Retrieval, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatPlain, "", "txt":
		return ExportToText(rows)
	case FormatCSV:
		return ExportToCSV(rows)
	case FormatMarkdown, "markdown":
		return ExportToMarkdown(rows)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidFlag, format, strings.Join(Formats, ", "))
	}
}

// WriteExport renders rows and writes them to path.
func WriteExport(rows []*models.Retrieval, format, path string) error {
	data, err := Export(rows, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

func title(r *models.Retrieval) string {
	if line := r.ArtistLine(); line != "" {
		return line + " - " + r.Name()
	}
	return r.Name()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
