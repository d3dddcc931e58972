package metadata

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	exifcommon "github.com/dsoprea/go-exif/v3/common"

	"github.com/cesargomez89/photodex/internal/domain"
)

// Interpret maps raw tag values from a parser onto the recognised keys.
// It is pure: the same input always gives the same output.
//
// GPS coordinates come out as three-element []float64 triples with the
// hemisphere sign applied to every component.
func Interpret(raw map[string]any) domain.Metadata {
	out := domain.Metadata{}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if allowed[name] {
			if v := normalize(raw[name]); v != nil {
				out[name] = v
			}
		}
	}
	for _, name := range names {
		key, ok := aliases[name]
		if !ok {
			continue
		}
		if _, set := out[key]; set {
			continue
		}
		if v := normalize(raw[name]); v != nil {
			out[key] = v
		}
	}

	applyHemisphere(out, KeyGPSLatitude, KeyGPSLatitudeRef, 'S')
	applyHemisphere(out, KeyGPSLongitude, KeyGPSLongitudeRef, 'W')

	if alt, ok := toFloat(out[KeyGPSAltitude]); ok {
		if belowSeaLevel(normalize(raw["GPSAltitudeRef"])) && alt > 0 {
			alt = -alt
		}
		out[KeyGPSAltitude] = alt
	} else {
		delete(out, KeyGPSAltitude)
	}

	if ts, ok := out[KeyGPSTimeStamp].([]float64); ok {
		if len(ts) == 3 {
			out[KeyGPSTimeStamp] = fmt.Sprintf("%02d:%02d:%02d", int(ts[0]), int(ts[1]), int(ts[2]))
		} else {
			delete(out, KeyGPSTimeStamp)
		}
	}

	return out
}

func applyHemisphere(out domain.Metadata, key, refKey string, negative byte) {
	v, ok := out[key]
	if !ok {
		return
	}

	triple, ok := toTriple(v)
	if !ok {
		delete(out, key)
		return
	}

	// Already signed, e.g. a decimal from exiftool.
	signed := triple[0] < 0 || triple[1] < 0 || triple[2] < 0
	if ref, _ := out[refKey].(string); !signed && ref != "" && upper(ref[0]) == negative {
		for i := range triple {
			triple[i] = -triple[i]
		}
	}
	out[key] = []float64{triple[0], triple[1], triple[2]}
}

func toTriple(v any) ([3]float64, bool) {
	switch t := v.(type) {
	case []float64:
		if len(t) == 3 {
			return [3]float64{t[0], t[1], t[2]}, true
		}
	case []any:
		if len(t) == 3 {
			var out [3]float64
			for i, c := range t {
				f, ok := toFloat(c)
				if !ok {
					return out, false
				}
				out[i] = f
			}
			return out, true
		}
	default:
		if f, ok := toFloat(v); ok {
			return splitDecimal(f), true
		}
	}
	return [3]float64{}, false
}

// splitDecimal turns decimal degrees into a triple that carries the sign on
// every component.
func splitDecimal(dec float64) [3]float64 {
	sign := 1.0
	if dec < 0 {
		sign, dec = -1, -dec
	}
	deg := math.Floor(dec)
	minutes := math.Floor((dec - deg) * 60)
	seconds := (dec - deg - minutes/60) * 3600
	return [3]float64{sign * deg, sign * minutes, sign * seconds}
}

// normalize converts parser-specific value types into JSON-friendly scalars
// and slices. It returns nil for values that carry nothing.
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(strings.TrimRight(t, "\x00"))
		if s == "" {
			return nil
		}
		return s
	case []exifcommon.Rational:
		fs := make([]float64, len(t))
		for i, r := range t {
			if r.Denominator != 0 {
				fs[i] = float64(r.Numerator) / float64(r.Denominator)
			}
		}
		return collapse(fs)
	case []exifcommon.SignedRational:
		fs := make([]float64, len(t))
		for i, r := range t {
			if r.Denominator != 0 {
				fs[i] = float64(r.Numerator) / float64(r.Denominator)
			}
		}
		return collapse(fs)
	case []uint16:
		fs := make([]float64, len(t))
		for i, n := range t {
			fs[i] = float64(n)
		}
		return collapse(fs)
	case []uint32:
		fs := make([]float64, len(t))
		for i, n := range t {
			fs[i] = float64(n)
		}
		return collapse(fs)
	case []int32:
		fs := make([]float64, len(t))
		for i, n := range t {
			fs[i] = float64(n)
		}
		return collapse(fs)
	case []byte:
		if len(t) == 1 {
			return float64(t[0])
		}
		return normalize(string(t))
	case float64, bool:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case []float64:
		return collapse(t)
	case []any:
		if len(t) == 0 {
			return nil
		}
		return t
	case fmt.Stringer:
		return normalize(t.String())
	default:
		return normalize(fmt.Sprint(t))
	}
}

func collapse(fs []float64) any {
	switch len(fs) {
	case 0:
		return nil
	case 1:
		return fs[0]
	default:
		return fs
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		fields := strings.Fields(t)
		if len(fields) == 0 {
			return 0, false
		}
		// "123.4 m Above Sea Level" style values keep the number first.
		f, err := strconv.ParseFloat(fields[0], 64)
		return f, err == nil
	}
	return 0, false
}

func belowSeaLevel(ref any) bool {
	switch t := ref.(type) {
	case float64:
		return t == 1
	case string:
		return t == "1" || strings.Contains(strings.ToLower(t), "below")
	}
	return false
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
