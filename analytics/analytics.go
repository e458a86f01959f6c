package analytics

import (
	"sort"
	"time"

	"greenmap/models"

	"github.com/shopspring/decimal"
)

// MonthLabelLayout renders a bucket as short month and two digit year, e.g. "May 24".
const MonthLabelLayout = "Jan 06"

var hundred = decimal.NewFromInt(100)

// MonthBucket counts the reports of one UTC calendar month.
type MonthBucket struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Label string     `json:"label"`
	Count int        `json:"count"`
}

// Summary is the derived statistics view of a report collection.
type Summary struct {
	TotalReports        int           `json:"totalReports"`
	TreeCount           int           `json:"treeCount"`
	PollutionCount      int           `json:"pollutionCount"`
	TreePercentage      float64       `json:"treePercentage"`
	PollutionPercentage float64       `json:"pollutionPercentage"`
	MonthlyData         []MonthBucket `json:"monthlyData"`
	MaxMonthlyCount     int           `json:"maxMonthlyCount"`
}

type monthKey struct {
	year  int
	month time.Month
}

// Summarize computes counts, type percentages and the monthly series.
// Reports whose timestamp does not parse are counted but not bucketed.
func Summarize(reports []models.Report) Summary {
	s := Summary{
		TotalReports: len(reports),
		MonthlyData:  []MonthBucket{},
	}
	if s.TotalReports == 0 {
		return s
	}

	counts := make(map[monthKey]int)
	for _, r := range reports {
		switch r.Type {
		case models.TreePlantation:
			s.TreeCount++
		case models.PollutionHotspot:
			s.PollutionCount++
		}
		t, err := r.Time()
		if err != nil {
			continue
		}
		t = t.UTC()
		counts[monthKey{t.Year(), t.Month()}]++
	}

	treePct := decimal.NewFromInt(int64(s.TreeCount)).Mul(hundred).Div(decimal.NewFromInt(int64(s.TotalReports)))
	s.TreePercentage = treePct.InexactFloat64()
	s.PollutionPercentage = hundred.Sub(treePct).InexactFloat64()

	for k, n := range counts {
		s.MonthlyData = append(s.MonthlyData, MonthBucket{
			Year:  k.year,
			Month: k.month,
			Label: time.Date(k.year, k.month, 1, 0, 0, 0, 0, time.UTC).Format(MonthLabelLayout),
			Count: n,
		})
		if n > s.MaxMonthlyCount {
			s.MaxMonthlyCount = n
		}
	}
	sort.Slice(s.MonthlyData, func(i, j int) bool {
		a, b := s.MonthlyData[i], s.MonthlyData[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
	return s
}
