package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"greenmap/models"
)

// FileName is the attachment name of a CSV download.
const FileName = "greenmap_reports.csv"

// ErrNoData is returned when the view to export is empty.
var ErrNoData = errors.New("no data available to download for the current filters")

var header = []string{"ID", "Type", "Latitude", "Longitude", "Location Name", "Description", "Reported By", "Timestamp"}

// WriteCSV writes the header and one row per report, lines separated by a
// bare newline with no trailing newline.
func WriteCSV(w io.Writer, reports []models.Report) error {
	if len(reports) == 0 {
		return ErrNoData
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(strings.Join(header, ","))
	for _, r := range reports {
		bw.WriteByte('\n')
		bw.WriteString(strings.Join([]string{
			escape(r.ID),
			escape(string(r.Type)),
			escape(formatFloat(r.Latitude)),
			escape(formatFloat(r.Longitude)),
			escape(r.LocationName),
			escape(r.Description),
			escape(r.ReportedBy),
			escape(r.Timestamp),
		}, ","))
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// escape quotes a cell only when it contains a comma. Other cells, even
// ones holding quotes or newlines, are written verbatim.
func escape(cell string) string {
	if !strings.Contains(cell, ",") {
		return cell
	}
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
