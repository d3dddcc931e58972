package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/cesargomez89/photodex/internal/geo"
)

// GPSTriple is a degrees/minutes/seconds coordinate. Southern and western
// coordinates carry the sign on every component, so Decimal is signed.
type GPSTriple [3]float64

// Decimal converts the triple to decimal degrees.
func (g GPSTriple) Decimal() float64 {
	return geo.DMSToDecimal(g[0], g[1], g[2])
}

func (g GPSTriple) Value() (driver.Value, error) {
	b, err := json.Marshal([3]float64(g))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (g *GPSTriple) Scan(value interface{}) error {
	data, ok := asBytes(value)
	if !ok {
		return fmt.Errorf("cannot scan %T into GPSTriple", value)
	}
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid gps triple %q: %w", data, err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("invalid gps triple %q: want 3 components, got %d", data, len(raw))
	}
	*g = GPSTriple{raw[0], raw[1], raw[2]}
	return nil
}

// NullGPSTriple is a nullable GPSTriple column.
type NullGPSTriple struct {
	Triple GPSTriple
	Valid  bool
}

func (n NullGPSTriple) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Triple.Value()
}

func (n *NullGPSTriple) Scan(value interface{}) error {
	if value == nil {
		n.Triple, n.Valid = GPSTriple{}, false
		return nil
	}
	if err := n.Triple.Scan(value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// Ptr returns nil for a NULL column.
func (n NullGPSTriple) Ptr() *GPSTriple {
	if !n.Valid {
		return nil
	}
	t := n.Triple
	return &t
}

// Metadata is the open map of recognised tags produced by the extractor.
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	data, ok := asBytes(value)
	if !ok {
		return fmt.Errorf("cannot scan %T into Metadata", value)
	}
	if len(data) == 0 || string(data) == "null" {
		*m = nil
		return nil
	}
	return json.Unmarshal(data, m)
}

func asBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}
