// package formatter exports reading sessions to various formats (CSV, Markdown, plain text, YAML) and parses CSV imports
package formatter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/desertthunder/readlog/internal/models"
	"github.com/desertthunder/readlog/internal/shared"
)

// Format is an export file format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
	FormatYAML     Format = "yaml"
)

// Formats lists the supported export formats.
var Formats = []Format{FormatCSV, FormatMarkdown, FormatText, FormatYAML}

// ParseFormat resolves a format name, accepting common aliases ("md", "text", "yml").
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q (use csv, markdown, txt or yaml)", shared.ErrInvalidArgument, name)
	}
}

// csvHeaders are the columns of a CSV export, in order.
var csvHeaders = []string{"id", "user_id", "minutes", "pages", "notes", "session_date", "created_at"}

// ExportToCSV converts sessions to CSV with columns: id, user_id, minutes, pages, notes, session_date, created_at
func ExportToCSV(export *models.ReadingExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, session := range export.Sessions {
		record := []string{
			session.ID,
			session.UserID,
			strconv.Itoa(session.Minutes),
			strconv.Itoa(session.Pages),
			session.Notes,
			session.SessionDate.UTC().Format(shared.DateLayout),
			formatTimestamp(session.CreatedAt),
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

// ExportToMarkdown renders a stats summary followed by a session table
func ExportToMarkdown(export *models.ReadingExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Reading log: %s\n\n", export.Reader.Email)

	if stats := export.Stats; stats != nil {
		fmt.Fprintf(&buf, "**Total pages**: %s\n", shared.FormatNumber(stats.TotalPages))
		fmt.Fprintf(&buf, "**Total time**: %s\n", shared.FormatMinutes(stats.TotalMinutes))
		fmt.Fprintf(&buf, "**Sessions**: %s\n", shared.FormatNumber(stats.TotalSessions))
		fmt.Fprintf(&buf, "**Average pages per session**: %s\n", shared.RoundAverage(stats.AvgPagesPerSession))
		fmt.Fprintf(&buf, "**Average minutes per session**: %s\n", shared.RoundAverage(stats.AvgMinutesPerSession))
		fmt.Fprintf(&buf, "**Last session**: %s\n\n", shared.FormatDate(stats.LastSessionDate))
	}

	buf.WriteString("## Sessions\n\n")
	if len(export.Sessions) == 0 {
		buf.WriteString("No reading sessions found.\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| Date | Minutes | Pages | Notes |\n")
	buf.WriteString("|------|--------:|------:|-------|\n")
	for _, session := range export.Sessions {
		fmt.Fprintf(&buf, "| %s | %d | %d | %s |\n",
			shared.FormatDate(session.SessionDate), session.Minutes, session.Pages, markdownCell(session.Notes))
	}

	return buf.Bytes(), nil
}

// ExportToText converts sessions to a plain text listing
func ExportToText(export *models.ReadingExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Reader: %s\n", export.Reader.Email)
	if stats := export.Stats; stats != nil {
		fmt.Fprintf(&buf, "Pages: %s, Time: %s\n", shared.FormatNumber(stats.TotalPages), shared.FormatMinutes(stats.TotalMinutes))
	}
	fmt.Fprintf(&buf, "Sessions: %d\n\n", len(export.Sessions))

	for i, session := range export.Sessions {
		fmt.Fprintf(&buf, "%d. %s - %d pages in %d min", i+1, shared.FormatDate(session.SessionDate), session.Pages, session.Minutes)
		if session.Notes != "" {
			fmt.Fprintf(&buf, " (%s)", session.Notes)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToYAML serializes the whole export, stats included
func ExportToYAML(export *models.ReadingExport) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(export); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// ToStatsJSON generates a JSON representation of the reader and stats (without sessions)
func ToStatsJSON(export *models.ReadingExport) ([]byte, error) {
	return shared.MarshalJSON(struct {
		Reader models.Identity     `json:"reader"`
		Stats  *models.ReaderStats `json:"stats"`
	}{export.Reader, export.Stats}, true)
}

// Render converts an export to the given format.
func Render(export *models.ReadingExport, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export)
	case FormatText:
		return ExportToText(export)
	case FormatYAML:
		return ExportToYAML(export)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	SessionsFile string
	StatsFile    string
}

// WriteCSVExport exports sessions to CSV with an accompanying stats JSON file.
//
// Defaults to the reader's name as the base filename & creates {base}_sessions.csv and {base}_stats.json
func WriteCSVExport(export *models.ReadingExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = DefaultBaseName(export)
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	sessionsFile := baseFilepath + "_sessions.csv"
	if err := os.WriteFile(sessionsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	statsJSON, err := ToStatsJSON(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate stats JSON: %w", err)
	}

	statsFile := baseFilepath + "_stats.json"
	if err := os.WriteFile(statsFile, statsJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write stats file: %w", err)
	}

	return &CSVExportResult{SessionsFile: sessionsFile, StatsFile: statsFile}, nil
}

// WriteMarkdownExport exports sessions to {dir}/README.md. Directory name defaults to the reader's name.
func WriteMarkdownExport(export *models.ReadingExport, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = DefaultBaseName(export)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}
	return mdFile, nil
}

// WriteTextExport exports sessions to plain text. Defaults to {base}_sessions.txt as the filename.
func WriteTextExport(export *models.ReadingExport, path string) (string, error) {
	return writeFile(export, path, "_sessions.txt", ExportToText)
}

// WriteYAMLExport exports sessions and stats to YAML. Defaults to {base}.yaml as the filename.
func WriteYAMLExport(export *models.ReadingExport, path string) (string, error) {
	return writeFile(export, path, ".yaml", ExportToYAML)
}

func writeFile(export *models.ReadingExport, path, suffix string, render func(*models.ReadingExport) ([]byte, error)) (string, error) {
	if path == "" {
		path = DefaultBaseName(export) + suffix
	}

	data, err := render(export)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// DefaultBaseName derives a file name from the reader's email ("reader@example.com" → "readlog_reader").
func DefaultBaseName(export *models.ReadingExport) string {
	name, _, _ := strings.Cut(export.Reader.Email, "@")
	if name == "" {
		name = export.Reader.UserID
	}
	if name == "" {
		return "readlog"
	}

	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	return "readlog_" + name
}

// ParseCSV reads sessions from CSV for the given owner.
//
// A header row is required; minutes, pages and session_date columns are mandatory and notes is optional.
// Other columns (id, user_id, created_at) are ignored so exports can be re-imported into another account.
func ParseCSV(r io.Reader, ownerID string) ([]*models.ReadingSession, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: CSV is empty", shared.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %v", shared.ErrInvalidInput, err)
	}

	columns := map[string]int{}
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"minutes", "pages", "session_date"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: CSV header is missing the %q column", shared.ErrInvalidInput, required)
		}
	}

	var sessions []*models.ReadingSession
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", shared.ErrInvalidInput, line, err)
		}

		session, err := parseRecord(record, columns, ownerID)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", shared.ErrInvalidInput, line, err)
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

func parseRecord(record []string, columns map[string]int, ownerID string) (*models.ReadingSession, error) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	minutes, err := strconv.Atoi(field("minutes"))
	if err != nil {
		return nil, fmt.Errorf("minutes %q is not a number", field("minutes"))
	}
	pages, err := strconv.Atoi(field("pages"))
	if err != nil {
		return nil, fmt.Errorf("pages %q is not a number", field("pages"))
	}

	raw := field("session_date")
	if raw == "" {
		return nil, fmt.Errorf("session_date is required")
	}
	date, err := shared.ParseDate(raw)
	if err != nil {
		return nil, err
	}

	session := models.NewReadingSession(ownerID, minutes, pages, field("notes"), date)
	if err := session.Validate(); err != nil {
		return nil, err
	}
	return session, nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// markdownCell keeps free text from breaking a table row.
func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
