package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"greenmap/models"
)

func TestWriteCSV(t *testing.T) {
	reports := []models.Report{
		{ID: "1", Type: models.TreePlantation, Latitude: 51.505, Longitude: -0.09, LocationName: "Central Park London", Description: "Planted 50 oak trees.", ReportedBy: "Eco Warriors", Timestamp: "2024-05-20T10:00:00Z"},
		{ID: "2", Type: models.PollutionHotspot, Latitude: 51.51, Longitude: -0.1, LocationName: "Bank", Description: `Bottles, bags and a "mystery" drum`, ReportedBy: "GreenPeace", Timestamp: "2024-05-18T14:30:00Z"},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, reports); err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		"ID,Type,Latitude,Longitude,Location Name,Description,Reported By,Timestamp",
		"1,TREE,51.505,-0.09,Central Park London,Planted 50 oak trees.,Eco Warriors,2024-05-20T10:00:00Z",
		`2,POLLUTION,51.51,-0.1,Bank,"Bottles, bags and a ""mystery"" drum",GreenPeace,2024-05-18T14:30:00Z`,
	}, "\n")
	if buf.String() != want {
		t.Errorf("WriteCSV() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestEscape(t *testing.T) {
	testCases := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"a,b", `"a,b"`},
		{`say "hi", then leave`, `"say ""hi"", then leave"`},
		{`only "quotes"`, `only "quotes"`},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			if got := escape(tc.in); got != tc.want {
				t.Errorf("escape(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); !errors.Is(err, ErrNoData) {
		t.Errorf("WriteCSV() error = %v, want ErrNoData", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %q for an empty view", buf.String())
	}
}
