package analytics

import (
	"sort"

	"greenmap/models"
)

const recentActivityLimit = 3

// Profile is the contribution overview of one user.
type Profile struct {
	User           models.User     `json:"user"`
	TotalReports   int             `json:"totalReports"`
	TreeCount      int             `json:"treeCount"`
	PollutionCount int             `json:"pollutionCount"`
	RecentActivity []models.Report `json:"recentActivity"`
}

// UserProfile selects the reports attributed to user by name and returns
// their counts and the most recent ones, newest first.
func UserProfile(reports []models.Report, user models.User) Profile {
	p := Profile{User: user, RecentActivity: []models.Report{}}

	var own []models.Report
	for _, r := range reports {
		if r.ReportedBy != user.Name {
			continue
		}
		own = append(own, r)
		if r.Type == models.TreePlantation {
			p.TreeCount++
		} else {
			p.PollutionCount++
		}
	}
	p.TotalReports = len(own)

	sort.SliceStable(own, func(i, j int) bool {
		ti, _ := own[i].Time()
		tj, _ := own[j].Time()
		return ti.After(tj)
	})
	if len(own) > recentActivityLimit {
		own = own[:recentActivityLimit]
	}
	p.RecentActivity = append(p.RecentActivity, own...)
	return p
}
