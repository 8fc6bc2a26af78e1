// core/scenario_loader.go
package core

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand/v2"

	"github.com/signalsfoundry/asteroid-defense/model"
)

// JSON shapes of a body table file.
type bodyTableJSON struct {
	Seed   uint64     `json:"seed"`
	Bodies []bodyJSON `json:"bodies"`
}

type bodyJSON struct {
	Name         string   `json:"name"`
	Distance     float64  `json:"distance"`
	AngularSpeed float64  `json:"angular_speed"`
	Radius       float64  `json:"radius"`
	PhaseOffset  *float64 `json:"phase_offset"` // optional; drawn from seed when absent
}

// LoadBodyTable reads a JSON body table from r. Bodies without an explicit
// phase offset get one drawn from the table's seed, in table order, so the
// same file always yields the same solar system.
func LoadBodyTable(r io.Reader) (*SolarSystem, error) {
	var payload bodyTableJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadBodyTable: decode failed: %w", err)
	}
	if len(payload.Bodies) == 0 {
		return nil, fmt.Errorf("LoadBodyTable: %w: no bodies", ErrInvalidBody)
	}

	rng := rand.New(rand.NewPCG(payload.Seed, payload.Seed^0x9e3779b97f4a7c15))
	bodies := make([]model.OrbitingBody, 0, len(payload.Bodies))
	for _, b := range payload.Bodies {
		offset := rng.Float64() * 2 * math.Pi
		if b.PhaseOffset != nil {
			offset = *b.PhaseOffset
		}
		bodies = append(bodies, model.OrbitingBody{
			Name:         b.Name,
			Distance:     b.Distance,
			AngularSpeed: b.AngularSpeed,
			PhaseOffset:  offset,
			Radius:       b.Radius,
		})
	}

	sys, err := NewSolarSystemFromBodies(bodies)
	if err != nil {
		return nil, fmt.Errorf("LoadBodyTable: %w", err)
	}
	if _, ok := sys.Body(model.BodyEarth); !ok {
		return nil, fmt.Errorf("LoadBodyTable: %w: table has no %q", ErrInvalidBody, model.BodyEarth)
	}
	if _, ok := sys.Body(model.BodyMars); !ok {
		return nil, fmt.Errorf("LoadBodyTable: %w: table has no %q", ErrInvalidBody, model.BodyMars)
	}
	sys.Seed = payload.Seed
	return sys, nil
}
