package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/readlog/internal/formatter"
	"github.com/desertthunder/readlog/internal/models"
	"github.com/desertthunder/readlog/internal/shared"
	th "github.com/desertthunder/readlog/internal/testing"
)

var testReader = models.Identity{UserID: "reader", Email: "reader@example.com"}

func TestBuildExport(t *testing.T) {
	t.Run("with stats", func(t *testing.T) {
		backend := th.NewMockBackend()
		backend.Seed("reader", 230)
		backend.Seed("other", 5)
		backend.Stats["reader"] = &models.ReaderStats{UserID: "reader", TotalPages: 26565}

		export, err := BuildExport(context.Background(), nil, backend, testReader)
		if err != nil {
			t.Fatalf("BuildExport() error = %v", err)
		}

		if len(export.Sessions) != 230 {
			t.Errorf("expected 230 sessions, got %d", len(export.Sessions))
		}
		if export.Sessions[0].Pages != 230 {
			t.Errorf("expected newest session first, got pages %d", export.Sessions[0].Pages)
		}
		if export.Stats == nil || export.Stats.TotalPages != 26565 {
			t.Errorf("unexpected stats: %+v", export.Stats)
		}
		if got := backend.CallCount("range reader"); got != 3 {
			t.Errorf("expected 3 range reads of 100, got %d", got)
		}
	})

	t.Run("reader without sessions", func(t *testing.T) {
		export, err := BuildExport(context.Background(), nil, th.NewMockBackend(), testReader)
		if err != nil {
			t.Fatalf("BuildExport() error = %v", err)
		}
		if export.Stats != nil {
			t.Errorf("expected no stats, got %+v", export.Stats)
		}
		if export.Sessions == nil || len(export.Sessions) != 0 {
			t.Errorf("expected empty sessions, got %v", export.Sessions)
		}
	})

	t.Run("backend failure", func(t *testing.T) {
		backend := th.NewMockBackend()
		backend.Err = shared.ErrServiceUnavailable

		_, err := BuildExport(context.Background(), nil, backend, testReader)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	backend := th.NewMockBackend()
	backend.Seed("reader", 3)
	export, err := BuildExport(context.Background(), nil, backend, testReader)
	if err != nil {
		t.Fatalf("BuildExport() error = %v", err)
	}

	tests := []struct {
		format    formatter.Format
		wantFiles []string
	}{
		{format: formatter.FormatCSV, wantFiles: []string{"readlog_reader_sessions.csv", "readlog_reader_stats.json"}},
		{format: formatter.FormatMarkdown, wantFiles: []string{filepath.Join("readlog_reader", "README.md")}},
		{format: formatter.FormatText, wantFiles: []string{"readlog_reader_sessions.txt"}},
		{format: formatter.FormatYAML, wantFiles: []string{"readlog_reader.yaml"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			dir := t.TempDir()

			result, err := WriteExport(nil, export, tt.format, dir, "")
			if err != nil {
				t.Fatalf("WriteExport() error = %v", err)
			}

			if result.Sessions != 3 {
				t.Errorf("expected 3 sessions, got %d", result.Sessions)
			}
			if len(result.Files) != len(tt.wantFiles) {
				t.Fatalf("expected %d files, got %v", len(tt.wantFiles), result.Files)
			}
			for i, want := range tt.wantFiles {
				if result.Files[i] != filepath.Join(dir, want) {
					t.Errorf("expected file %s, got %s", filepath.Join(dir, want), result.Files[i])
				}
				th.AssertFileExists(t, result.Files[i])
			}
		})
	}

	t.Run("explicit output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mine.yaml")
		result, err := WriteExport(nil, export, formatter.FormatYAML, "", path)
		if err != nil {
			t.Fatalf("WriteExport() error = %v", err)
		}
		if result.Files[0] != path {
			t.Errorf("expected %s, got %s", path, result.Files[0])
		}
		data, _ := os.ReadFile(path)
		if !strings.Contains(string(data), "reader@example.com") {
			t.Error("YAML export missing reader")
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		if _, err := WriteExport(nil, export, formatter.Format("pdf"), t.TempDir(), ""); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
