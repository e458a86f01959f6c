package mapaggr

import (
	"sort"

	"greenmap/models"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// ViewPort is the visible map rectangle in degrees.
type ViewPort struct {
	LatMin float64 `json:"latMin"`
	LonMin float64 `json:"lonMin"`
	LatMax float64 `json:"latMax"`
	LonMax float64 `json:"lonMax"`
}

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MapPoint is either a single report marker (Count 1, ReportID set) or a
// cluster of Count reports pinned at the centroid of its members.
type MapPoint struct {
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
	Count     int64             `json:"count"`
	ReportID  string            `json:"reportId,omitempty"`
	Type      models.ReportType `json:"type,omitempty"`
}

func (vp ViewPort) Contains(lat, lon float64) bool {
	return lat >= vp.LatMin && lat <= vp.LatMax && lon >= vp.LonMin && lon <= vp.LonMax
}

type aggrUnit struct {
	cnt         int64
	containment [4]bool // 4 elements, one per child cell
	pin         s2.Point
	members     []*MapPoint
}

type aggregator struct {
	level  int
	points map[s2.CellID][]*MapPoint
	aggrs  map[s2.CellID]*aggrUnit
}

const (
	expectedCells       = 16
	minLevel            = 2
	maxLevel            = 18
	minRepToAggr        = 10
	weightDiffThreshold = 8
)

// CellBaseLevel finds the s2 cell level at which roughly expectedCells
// cells cover the viewport.
func CellBaseLevel(vp ViewPort, center Point) int {
	minLL := s2.LatLngFromDegrees(vp.LatMin, vp.LonMin)
	maxLL := s2.LatLngFromDegrees(vp.LatMax, vp.LonMax)

	rect := s2.Rect{
		Lat: r1.Interval{
			Lo: minLL.Lat.Radians(),
			Hi: maxLL.Lat.Radians()},
		Lng: s1.Interval{
			Lo: minLL.Lng.Radians(),
			Hi: maxLL.Lng.Radians()},
	}

	vpArea := rect.Area()

	centerCell := s2.CellIDFromLatLng(s2.LatLngFromDegrees(center.Lat, center.Lon))

	for lv := maxLevel; lv >= minLevel; lv-- {
		cc := s2.CellFromCellID(centerCell.Parent(lv))
		if vpArea/cc.ApproxArea() < expectedCells {
			return lv
		}
	}
	return minLevel
}

// Cluster places the reports inside the viewport on the map. Cells with
// more than minRepToAggr reports collapse into one counted pin; the rest
// stay individual markers. Output is ordered by count, then position.
func Cluster(reports []models.Report, vp ViewPort, center Point) []MapPoint {
	a := &aggregator{
		level:  CellBaseLevel(vp, center),
		points: make(map[s2.CellID][]*MapPoint),
		aggrs:  make(map[s2.CellID]*aggrUnit),
	}
	for _, r := range reports {
		if !vp.Contains(r.Latitude, r.Longitude) {
			continue
		}
		a.addPoint(MapPoint{
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Count:     1,
			ReportID:  r.ID,
			Type:      r.Type,
		})
	}
	out := a.toArray()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Latitude != out[j].Latitude {
			return out[i].Latitude < out[j].Latitude
		}
		if out[i].Longitude != out[j].Longitude {
			return out[i].Longitude < out[j].Longitude
		}
		return out[i].ReportID < out[j].ReportID
	})
	return out
}

func (a *aggregator) addPoint(p MapPoint) {
	pc := s2.CellIDFromLatLng(s2.LatLngFromDegrees(p.Latitude, p.Longitude))
	parent := pc.Parent(maxLevel)
	a.points[parent] = append(a.points[parent], &p)
}

func (a *aggregator) toArray() []MapPoint {
	a.aggregate()
	r := make([]MapPoint, 0, len(a.aggrs))
	for _, unit := range a.aggrs {
		if unit.cnt <= minRepToAggr {
			for _, m := range unit.members {
				r = append(r, *m)
			}
			continue
		}
		ll := s2.LatLngFromPoint(unit.pin)
		r = append(r, MapPoint{
			Latitude:  ll.Lat.Degrees(),
			Longitude: ll.Lng.Degrees(),
			Count:     unit.cnt,
		})
	}
	return r
}

func (a *aggregator) computeCentroid(pCell s2.CellID, chAggrs []*aggrUnit) s2.Point {
	pins := make([]s2.Point, 0, len(chAggrs))
	maxWeight := int64(0)
	for _, aggr := range chAggrs {
		if maxWeight < aggr.cnt {
			maxWeight = aggr.cnt
		}
	}
	// Children much lighter than the heaviest one do not pull the pin.
	for _, aggr := range chAggrs {
		if maxWeight/aggr.cnt < weightDiffThreshold {
			pins = append(pins, aggr.pin)
		}
	}
	switch len(pins) {
	case 1:
		return pins[0]
	case 2:
		return s2.PlanarCentroid(pins[0], pins[0], pins[1])
	case 3:
		return s2.PlanarCentroid(pins[0], pins[1], pins[2])
	}
	return s2.PointFromLatLng(pCell.LatLng())
}

func (a *aggregator) aggrStep(level int) {
	if level < a.level {
		return
	}
	// Merge the units one s2 level up.
	next := make(map[s2.CellID]*aggrUnit)
	for cell, unit := range a.aggrs {
		p := cell.Parent(level)
		eu, ok := next[p]
		if !ok {
			next[p] = &aggrUnit{
				cnt:     unit.cnt,
				members: unit.members,
			}
		} else {
			next[p] = &aggrUnit{
				cnt:         eu.cnt + unit.cnt,
				containment: eu.containment,
			}
			if eu.cnt+unit.cnt <= minRepToAggr {
				next[p].members = append(eu.members, unit.members...)
			}
		}
		next[p].containment[cell.ChildPosition(level+1)] = true
	}
	// The pin of a merged unit is the centroid of its children's pins.
	for pCell, pUnit := range next {
		chAggrs := make([]*aggrUnit, 0, 4)
		for i, v := range pUnit.containment {
			if v {
				if chAggr, ok := a.aggrs[pCell.Children()[i]]; ok {
					chAggrs = append(chAggrs, chAggr)
				}
			}
		}
		pUnit.pin = a.computeCentroid(pCell, chAggrs)
	}
	a.aggrs = next
	a.aggrStep(level - 1)
}

func (a *aggregator) aggregate() {
	for cell, pts := range a.points {
		a.aggrs[cell] = &aggrUnit{
			cnt:         int64(len(pts)),
			containment: [4]bool{true, true, true, true},
			pin:         s2.PointFromLatLng(cell.LatLng()),
		}
		if len(pts) <= minRepToAggr {
			a.aggrs[cell].members = pts
		}
	}
	a.aggrStep(maxLevel - 1)
}
