package formatter

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/desertthunder/readlog/internal/models"
	"github.com/desertthunder/readlog/internal/shared"
	th "github.com/desertthunder/readlog/internal/testing"
)

func testExport() *models.ReadingExport {
	return &models.ReadingExport{
		Reader: models.Identity{UserID: "user-1", Email: "ada@example.com"},
		Stats: &models.ReaderStats{
			UserID:               "user-1",
			Email:                "ada@example.com",
			TotalPages:           1250,
			TotalMinutes:         1500,
			TotalSessions:        2,
			AvgPagesPerSession:   625,
			AvgMinutesPerSession: 750,
			LastSessionDate:      time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		Sessions: []models.ReadingSession{
			{
				ID:          "session-2",
				UserID:      "user-1",
				Minutes:     900,
				Pages:       1000,
				Notes:       "Finished | War and Peace",
				SessionDate: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
				CreatedAt:   time.Date(2025, 3, 2, 21, 30, 0, 0, time.UTC),
			},
			{
				ID:          "session-1",
				UserID:      "user-1",
				Minutes:     600,
				Pages:       250,
				SessionDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
				CreatedAt:   time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC),
			},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
		}
		if lines[0] != "id,user_id,minutes,pages,notes,session_date,created_at" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if lines[1] != "session-2,user-1,900,1000,Finished | War and Peace,2025-03-02,2025-03-02T21:30:00Z" {
			t.Errorf("unexpected first row: %s", lines[1])
		}
		if lines[2] != "session-1,user-1,600,250,,2025-03-01,2025-03-01T20:00:00Z" {
			t.Errorf("unexpected second row: %s", lines[2])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testExport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Reading log: ada@example.com",
			"**Total pages**: 1,250",
			"**Total time**: 1,500 min",
			"**Last session**: 2025-03-02",
			"| Date | Minutes | Pages | Notes |",
			`| 2025-03-02 | 900 | 1000 | Finished \| War and Peace |`,
			"| 2025-03-01 | 600 | 250 |  |",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToMarkdown without sessions", func(t *testing.T) {
		export := &models.ReadingExport{Reader: models.Identity{Email: "new@example.com"}}
		data, err := ExportToMarkdown(export)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		if strings.Contains(output, "**Total pages**") {
			t.Error("Markdown should omit stats when there are none")
		}
		if !strings.Contains(output, "No reading sessions found.") {
			t.Error("Markdown missing empty state")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Reader: ada@example.com") {
			t.Errorf("Text missing reader")
		}
		if !strings.Contains(output, "Sessions: 2") {
			t.Errorf("Text missing session count")
		}
		if !strings.Contains(output, "1. 2025-03-02 - 1000 pages in 900 min (Finished | War and Peace)") {
			t.Errorf("Text missing first session, got:\n%s", output)
		}
		if !strings.Contains(output, "2. 2025-03-01 - 250 pages in 600 min\n") {
			t.Errorf("Text missing second session, got:\n%s", output)
		}
	})

	t.Run("ExportToYAML", func(t *testing.T) {
		data, err := ExportToYAML(testExport())
		if err != nil {
			t.Fatalf("ExportToYAML failed: %v", err)
		}

		var decoded models.ReadingExport
		if err := yaml.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("YAML output does not parse: %v", err)
		}
		if decoded.Reader.Email != "ada@example.com" {
			t.Errorf("expected reader email, got %q", decoded.Reader.Email)
		}
		if len(decoded.Sessions) != 2 || decoded.Sessions[0].Pages != 1000 {
			t.Errorf("unexpected sessions: %+v", decoded.Sessions)
		}
		if decoded.Stats == nil || decoded.Stats.TotalPages != 1250 {
			t.Errorf("unexpected stats: %+v", decoded.Stats)
		}
	})

	t.Run("ToStatsJSON", func(t *testing.T) {
		data, err := ToStatsJSON(testExport())
		if err != nil {
			t.Fatalf("ToStatsJSON failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, `"total_pages": 1250`) {
			t.Errorf("JSON missing total pages, got: %s", output)
		}
		if strings.Contains(output, "session-1") {
			t.Errorf("JSON should not contain sessions")
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"csv":      FormatCSV,
		"CSV":      FormatCSV,
		"markdown": FormatMarkdown,
		"md":       FormatMarkdown,
		"txt":      FormatText,
		"text":     FormatText,
		"yaml":     FormatYAML,
		" yml ":    FormatYAML,
	}

	for input, want := range tests {
		got, err := ParseFormat(input)
		if err != nil {
			t.Errorf("ParseFormat(%q) failed: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", input, got, want)
		}
	}

	if _, err := ParseFormat("pdf"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for pdf, got %v", err)
	}
}

func TestRender(t *testing.T) {
	for _, format := range Formats {
		data, err := Render(testExport(), format)
		if err != nil {
			t.Errorf("Render(%s) failed: %v", format, err)
		}
		if len(data) == 0 {
			t.Errorf("Render(%s) produced no output", format)
		}
	}

	if _, err := Render(testExport(), Format("xml")); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestDefaultBaseName(t *testing.T) {
	tests := []struct {
		reader models.Identity
		want   string
	}{
		{reader: models.Identity{Email: "ada@example.com"}, want: "readlog_ada"},
		{reader: models.Identity{Email: "ada.lovelace+books@example.com"}, want: "readlog_ada_lovelace_books"},
		{reader: models.Identity{UserID: "user-1"}, want: "readlog_user-1"},
		{reader: models.Identity{}, want: "readlog"},
	}

	for _, tt := range tests {
		if got := DefaultBaseName(&models.ReadingExport{Reader: tt.reader}); got != tt.want {
			t.Errorf("DefaultBaseName(%+v) = %q, want %q", tt.reader, got, tt.want)
		}
	}
}

func TestParseCSV(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		data, err := ExportToCSV(testExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		sessions, err := ParseCSV(strings.NewReader(string(data)), "user-2")
		if err != nil {
			t.Fatalf("ParseCSV failed: %v", err)
		}

		if len(sessions) != 2 {
			t.Fatalf("expected 2 sessions, got %d", len(sessions))
		}
		first := sessions[0]
		if first.UserID != "user-2" {
			t.Errorf("expected owner user-2, got %s", first.UserID)
		}
		if first.ID != "" {
			t.Errorf("imported sessions should not keep their ID, got %s", first.ID)
		}
		if first.Minutes != 900 || first.Pages != 1000 || first.Notes != "Finished | War and Peace" {
			t.Errorf("unexpected session: %+v", first)
		}
		if !first.SessionDate.Equal(time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected session date: %v", first.SessionDate)
		}
	})

	t.Run("MinimalColumns", func(t *testing.T) {
		input := "Session_Date, Pages, Minutes\n2025-01-05, 12, 20\n"
		sessions, err := ParseCSV(strings.NewReader(input), "user-1")
		if err != nil {
			t.Fatalf("ParseCSV failed: %v", err)
		}
		if len(sessions) != 1 || sessions[0].Pages != 12 || sessions[0].Minutes != 20 || sessions[0].Notes != "" {
			t.Errorf("unexpected sessions: %+v", sessions)
		}
	})

	errorCases := []struct {
		name  string
		input string
	}{
		{name: "Empty", input: ""},
		{name: "MissingColumn", input: "minutes,pages\n10,10\n"},
		{name: "BadMinutes", input: "minutes,pages,session_date\nten,10,2025-01-01\n"},
		{name: "BadPages", input: "minutes,pages,session_date\n10,,2025-01-01\n"},
		{name: "NegativePages", input: "minutes,pages,session_date\n10,-3,2025-01-01\n"},
		{name: "BadDate", input: "minutes,pages,session_date\n10,10,01/02/2025\n"},
		{name: "MissingDate", input: "minutes,pages,session_date\n10,10,\n"},
		{name: "RaggedRow", input: "minutes,pages,session_date\n10,10\n"},
	}

	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input), "user-1")
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	t.Run("ReportsLine", func(t *testing.T) {
		input := "minutes,pages,session_date\n10,10,2025-01-01\n10,x,2025-01-02\n"
		_, err := ParseCSV(strings.NewReader(input), "user-1")
		if err == nil || !strings.Contains(err.Error(), "line 3") {
			t.Errorf("expected error on line 3, got %v", err)
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteCSVExport(testExport(), "")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.SessionsFile != "readlog_ada_sessions.csv" {
				t.Errorf("Expected sessions file 'readlog_ada_sessions.csv', got '%s'", result.SessionsFile)
			}
			if result.StatsFile != "readlog_ada_stats.json" {
				t.Errorf("Expected stats file 'readlog_ada_stats.json', got '%s'", result.StatsFile)
			}

			th.AssertFileExists(t, result.SessionsFile)
			th.AssertFileExists(t, result.StatsFile)

			if content := th.MustReadFile(t, result.StatsFile); !strings.Contains(content, "ada@example.com") {
				t.Errorf("Stats JSON missing reader")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "custom_export")

			result, err := WriteCSVExport(testExport(), base)
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}
			if result.SessionsFile != base+"_sessions.csv" {
				t.Errorf("Expected '%s_sessions.csv', got '%s'", base, result.SessionsFile)
			}
			th.AssertFileExists(t, result.SessionsFile)
		})

		t.Run("UnwritableDirectory", func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "missing", "dir", "export")
			if _, err := WriteCSVExport(testExport(), base); err == nil {
				t.Error("expected error for missing directory")
			}
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "log")

		file, err := WriteMarkdownExport(testExport(), dir)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		th.AssertDirExists(t, dir)
		if file != filepath.Join(dir, "README.md") {
			t.Errorf("unexpected file %s", file)
		}
		if content := th.MustReadFile(t, file); !strings.Contains(content, "# Reading log: ada@example.com") {
			t.Errorf("Markdown missing title")
		}
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		file, err := WriteTextExport(testExport(), "")
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if file != "readlog_ada_sessions.txt" {
			t.Errorf("Expected 'readlog_ada_sessions.txt', got '%s'", file)
		}
		th.AssertFileExists(t, file)
	})

	t.Run("WriteYAMLExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "log.yaml")

		file, err := WriteYAMLExport(testExport(), path)
		if err != nil {
			t.Fatalf("WriteYAMLExport failed: %v", err)
		}
		if content := th.MustReadFile(t, file); !strings.Contains(content, "email: ada@example.com") {
			t.Errorf("YAML missing reader email, got:\n%s", content)
		}
	})
}
