package models_test

import (
	"testing"
	"time"

	"agrovet/pkg/models"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		in      string
		wantErr bool
	}{
		{in: "2024-03-05"},
		{in: "05/03/2024"},
		{in: "5/3/2024"},
		{in: "05.03.2024"},
		{in: "05-03-2024"},
		{in: "05/03/24"},
		{in: "  2024-03-05 "},
		{in: "", wantErr: true},
		{in: "março de 2024", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := models.ParseDate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDate(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) error = %v", tt.in, err)
			}
			if !got.Equal(want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, want)
			}
		})
	}
}

func TestFarmRecordCounts(t *testing.T) {
	r := models.FarmRecord{TotalDams: 100, RepeatServices: 7}
	counts := r.Counts()
	if len(counts) != 9 {
		t.Fatalf("Counts() has %d entries, want 9", len(counts))
	}
	if counts[0].Name != "total_dams" || counts[0].Value != 100 {
		t.Errorf("Counts()[0] = %+v", counts[0])
	}
	if counts[8].Name != "repeat_services" || counts[8].Value != 7 {
		t.Errorf("Counts()[8] = %+v", counts[8])
	}
}
