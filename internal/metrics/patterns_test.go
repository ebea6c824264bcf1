package metrics_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"agrovet/internal/metrics"
)

func TestParsePatterns(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    map[metrics.Key]string
		wantErr error
	}{
		{
			name: "single override",
			yaml: "patterns:\n  total_calvings: '(partos\\s*totais)\\D+(\\d+)'\n",
			want: map[metrics.Key]string{metrics.TotalCalvings: `(partos\s*totais)\D+(\d+)`},
		},
		{
			name: "empty file",
			yaml: "",
			want: map[metrics.Key]string{},
		},
		{
			name:    "unknown key",
			yaml:    "patterns:\n  milk_yield: '(leite)\\D+(\\d+)'\n",
			wantErr: metrics.ErrUnknownKey,
		},
		{
			name:    "derived key",
			yaml:    "patterns:\n  calvings_per_cow_per_year: '(x)(\\d+)'\n",
			wantErr: metrics.ErrUnknownKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := metrics.ParsePatterns([]byte(tt.yaml))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParsePatterns() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePatterns() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParsePatterns() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("pattern %s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestNewParserFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	content := "patterns:\n  total_calvings: '(partos\\s*totais)\\D+(\\d+)'\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := metrics.NewParserFromFile(path)
	if err != nil {
		t.Fatalf("NewParserFromFile() error = %v", err)
	}

	got := p.Parse("Partos totais: 77. Taxa de prenhez 64%")
	if v, ok := got.Get(metrics.TotalCalvings); !ok || v != 77 {
		t.Errorf("total_calvings = %v, %v; want 77, true", v, ok)
	}
	if v, ok := got.Get(metrics.PregnancyRate); !ok || v != 64 {
		t.Errorf("default pattern lost: pregnancy_rate = %v, %v", v, ok)
	}
}

func TestNewParserFromFileMissing(t *testing.T) {
	_, err := metrics.NewParserFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("NewParserFromFile() error = %v, want os.ErrNotExist", err)
	}
}
