package deployment

import (
	"math"
	"sync"

	"guardplan/internal/model"
	"guardplan/internal/service/placement"
	"guardplan/internal/service/storage"
	"guardplan/internal/util"

	"github.com/dhconnelly/rtreego"
)

// metersPerDegree is the length of one degree of latitude
const metersPerDegree = util.EarthRadiusMeters * math.Pi / 180

// unitSpatial wraps a placed unit for R-tree indexing
type unitSpatial struct {
	unit          model.PlacedUnit
	minSeparation float64
}

// Bounds implements the rtreego.Spatial interface
func (u *unitSpatial) Bounds() rtreego.Rect {
	return rtreego.Point{u.unit.Position.Lng, u.unit.Position.Lat}.ToRect(1e-9)
}

// Session is the live set of placed units for the current plan. Reads are
// safe from any goroutine; mutation belongs to the Orchestrator.
type Session struct {
	units storage.Storage[string, model.PlacedUnit]
	specs model.KindSpecs

	mu       sync.RWMutex
	index    *rtreego.Rtree // [lng, lat] R-tree over unit positions
	spatials map[string]*unitSpatial
	sequence int
}

func newSession(specs model.KindSpecs) *Session {
	return &Session{
		units:    storage.NewMemoryStorage[string, model.PlacedUnit](),
		specs:    specs,
		index:    rtreego.NewTree(2, 25, 50),
		spatials: make(map[string]*unitSpatial),
	}
}

// add stores the unit, assigning its sequence number
func (s *Session) add(u model.PlacedUnit) model.PlacedUnit {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.Sequence = s.sequence
	s.sequence++

	sp := &unitSpatial{unit: u, minSeparation: s.specs.MinSeparation(u.Kind)}
	s.index.Insert(sp)
	s.spatials[u.ID] = sp
	s.units.Set(u.ID, u)
	return u
}

func (s *Session) remove(id string) (model.PlacedUnit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.spatials[id]
	if !ok {
		return model.PlacedUnit{}, false
	}
	s.index.Delete(sp)
	delete(s.spatials, id)
	s.units.Delete(id)
	return sp.unit, true
}

// clear drops every unit and restarts sequence numbering
func (s *Session) clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index = rtreego.NewTree(2, 25, 50)
	s.spatials = make(map[string]*unitSpatial)
	s.sequence = 0
	return s.units.Clear()
}

// Units returns the placed units in placement order
func (s *Session) Units() []model.PlacedUnit {
	return s.units.Values()
}

// Get returns a unit by ID
func (s *Session) Get(id string) (model.PlacedUnit, bool) {
	return s.units.Get(id)
}

// Count returns the number of placed units
func (s *Session) Count() int {
	return s.units.Count()
}

// Counts returns the running count per kind
func (s *Session) Counts() map[model.ResourceKind]int {
	out := make(map[model.ResourceKind]int)
	s.units.ForEach(func(_ string, u model.PlacedUnit) bool {
		out[u.Kind]++
		return true
	})
	return out
}

// Within implements placement.Occupancy
func (s *Session) Within(center model.Point, radius float64) []placement.Occupant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []placement.Occupant
	for _, sp := range s.search(center, radius) {
		out = append(out, placement.Occupant{Position: sp.unit.Position, MinSeparation: sp.minSeparation})
	}
	return out
}

// MaxSeparation implements placement.Occupancy
func (s *Session) MaxSeparation() float64 {
	m := 0.0
	s.units.ForEach(func(_ string, u model.PlacedUnit) bool {
		m = math.Max(m, s.specs.MinSeparation(u.Kind))
		return true
	})
	return m
}

// search queries the R-tree with a box that encloses the circle, then filters
// by great-circle distance. Caller holds mu.
func (s *Session) search(center model.Point, radius float64) []*unitSpatial {
	if len(s.spatials) == 0 || radius < 0 {
		return nil
	}

	// Pad the box so the degree approximation never cuts the circle
	dLat := radius/metersPerDegree*1.01 + 1e-9
	cosLat := math.Max(math.Cos(center.Lat*math.Pi/180), 0.01)
	dLng := dLat / cosLat

	rect, err := rtreego.NewRect(
		rtreego.Point{center.Lng - dLng, center.Lat - dLat},
		[]float64{2 * dLng, 2 * dLat},
	)
	if err != nil {
		return nil
	}

	var out []*unitSpatial
	for _, item := range s.index.SearchIntersect(rect) {
		sp := item.(*unitSpatial)
		if util.DistanceMeters(center, sp.unit.Position) <= radius {
			out = append(out, sp)
		}
	}
	return out
}
