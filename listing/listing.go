package listing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"greenmap/models"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// TypeAll disables the type filter.
const TypeAll = "ALL"

// Sort keys.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortName   = "name"
)

// Query selects and orders a view of the report collection.
type Query struct {
	Type   string
	Search string
	Sort   string
}

// ParseQuery builds a Query from request parameters. Empty values take
// their defaults; an unknown type is rejected, an unknown sort key falls
// back to newest.
func ParseQuery(typ, search, sortKey string) (Query, error) {
	q := Query{
		Type:   strings.ToUpper(strings.TrimSpace(typ)),
		Search: search,
		Sort:   strings.ToLower(strings.TrimSpace(sortKey)),
	}
	if q.Type == "" {
		q.Type = TypeAll
	}
	if q.Type != TypeAll && !models.ReportType(q.Type).Valid() {
		return Query{}, fmt.Errorf("%w: unknown report type %q", models.ErrInvalid, typ)
	}
	switch q.Sort {
	case SortNewest, SortOldest, SortName:
	default:
		q.Sort = SortNewest
	}
	return q, nil
}

// Apply filters by type and search term and sorts the result. The input
// slice is left untouched; ties keep their original relative order.
func Apply(reports []models.Report, q Query) []models.Report {
	term := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]models.Report, 0, len(reports))
	for _, r := range reports {
		if q.Type != "" && q.Type != TypeAll && string(r.Type) != q.Type {
			continue
		}
		if term != "" && !matches(r, term) {
			continue
		}
		out = append(out, r)
	}

	switch q.Sort {
	case SortName:
		c := collate.New(language.English, collate.Loose)
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].LocationName, out[j].LocationName) < 0
		})
	case SortOldest:
		byTime(out, func(a, b time.Time) bool { return a.Before(b) })
	default:
		byTime(out, func(a, b time.Time) bool { return a.After(b) })
	}
	return out
}

func matches(r models.Report, term string) bool {
	return strings.Contains(strings.ToLower(r.LocationName), term) ||
		strings.Contains(strings.ToLower(r.Description), term)
}

// byTime sorts by parsed timestamp. Unparseable timestamps compare as the
// zero time, so they end up last for newest and first for oldest.
func byTime(reports []models.Report, less func(a, b time.Time) bool) {
	times := make(map[string]time.Time, len(reports))
	for _, r := range reports {
		t, _ := r.Time()
		times[r.Timestamp] = t
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return less(times[reports[i].Timestamp], times[reports[j].Timestamp])
	})
}
