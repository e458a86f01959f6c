package mapaggr

import (
	"fmt"
	"math"
	"testing"

	"greenmap/models"
)

func TestCluster(t *testing.T) {
	type val struct {
		lat float64
		lon float64
	}

	testCases := []struct {
		name   string
		vp     ViewPort
		center Point
		vals   []val

		wantCounts []int64
	}{
		{
			name:   "Dense cluster and a lone report",
			vp:     ViewPort{LatMin: 42.691869916020075, LonMin: -4.318880552071925, LatMax: 52.80861391899353, LonMax: 11.800429267075046},
			center: Point{Lat: 47.7502419175, Lon: 3.7407743575},
			vals: []val{
				{47.31462939002329, 8.541340828180283},
				{47.31462939002329, 8.541340828180283},
				{47.31462939002329, 8.541340828180283},
				{47.31462939002329, 8.541340828180283},
				{47.33001916923687, 8.526018592128164},
				{47.33001916923687, 8.526018592128164},
				{47.33001916923687, 8.526018592128164},
				{47.32553912731774, 8.541040883060727},
				{47.342540664005575, 8.524205901684924},
				{47.33262304063603, 8.5200006810743},
				{47.3162507337501, 8.5439348359329},
				{47.31736001922385, 8.517462177871218},
				{47.38400103557999, 8.493601108716156},
				{47.39907725236555, 8.612192557531866},
				{48.95821274837425, -0.5711499548796795},
			},
			wantCounts: []int64{14, 1},
		},
		{
			name:   "Few reports stay individual",
			vp:     ViewPort{LatMin: 51.4, LonMin: -0.3, LatMax: 51.6, LonMax: 0.1},
			center: Point{Lat: 51.5, Lon: -0.1},
			vals: []val{
				{51.505, -0.09},
				{51.51, -0.1},
				{51.52, -0.12},
			},
			wantCounts: []int64{1, 1, 1},
		},
		{
			name:   "Reports outside the viewport are dropped",
			vp:     ViewPort{LatMin: 51.4, LonMin: -0.3, LatMax: 51.6, LonMax: 0.1},
			center: Point{Lat: 51.5, Lon: -0.1},
			vals: []val{
				{51.505, -0.09},
				{40.7, -74.0},
			},
			wantCounts: []int64{1},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var reports []models.Report
			for i, v := range tc.vals {
				reports = append(reports, models.Report{
					ID:        fmt.Sprintf("r%d", i),
					Type:      models.TreePlantation,
					Latitude:  v.lat,
					Longitude: v.lon,
				})
			}

			got := Cluster(reports, tc.vp, tc.center)
			if len(got) != len(tc.wantCounts) {
				t.Fatalf("Cluster() returned %d points %v, want %d", len(got), got, len(tc.wantCounts))
			}
			for i, p := range got {
				if p.Count != tc.wantCounts[i] {
					t.Errorf("point %d count = %d, want %d", i, p.Count, tc.wantCounts[i])
				}
				if p.Count == 1 && p.ReportID == "" {
					t.Errorf("single marker %d has no report id", i)
				}
				if p.Count > 1 && !tc.vp.Contains(p.Latitude, p.Longitude) {
					t.Errorf("cluster pin %v is outside the viewport", p)
				}
			}
		})
	}
}

func TestClusterKeepsSingleMarkerPosition(t *testing.T) {
	vp := ViewPort{LatMin: 51.4, LonMin: -0.3, LatMax: 51.6, LonMax: 0.1}
	got := Cluster([]models.Report{{ID: "1", Type: models.PollutionHotspot, Latitude: 51.505, Longitude: -0.09}}, vp, Point{Lat: 51.5, Lon: -0.1})
	if len(got) != 1 {
		t.Fatalf("got %v", got)
	}
	p := got[0]
	if p.ReportID != "1" || p.Type != models.PollutionHotspot {
		t.Errorf("marker = %+v", p)
	}
	if math.Abs(p.Latitude-51.505) > 1e-12 || math.Abs(p.Longitude+0.09) > 1e-12 {
		t.Errorf("marker moved to %v,%v", p.Latitude, p.Longitude)
	}
}

func TestCellBaseLevel(t *testing.T) {
	large := CellBaseLevel(ViewPort{LatMin: 40, LonMin: -10, LatMax: 55, LonMax: 15}, Point{Lat: 47.5, Lon: 2.5})
	small := CellBaseLevel(ViewPort{LatMin: 51.50, LonMin: -0.10, LatMax: 51.51, LonMax: -0.09}, Point{Lat: 51.505, Lon: -0.095})
	if large >= small {
		t.Errorf("large viewport level %d should be coarser than small viewport level %d", large, small)
	}
	if large < minLevel || small > maxLevel {
		t.Errorf("levels out of range: %d, %d", large, small)
	}
}
