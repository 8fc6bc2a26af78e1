package catalog

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"regexp"
	"sort"
	"strconv"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/asteroid-defense/core"
	"github.com/signalsfoundry/asteroid-defense/model"
)

// Handoff size bounds.
const (
	MaxHandoffBytes = 4096
	MaxHandoffKeys  = 32
	MaxValueLength  = 256
)

var (
	// ErrHandoffTooLarge indicates a handoff exceeding the size bounds.
	ErrHandoffTooLarge = errors.New("handoff exceeds size bounds")
	// ErrHandoffMalformed indicates a handoff that is not a flat JSON object.
	ErrHandoffMalformed = errors.New("malformed handoff")
)

var numberPattern = regexp.MustCompile(`[\d.]+`)

// Selection is the asteroid a session starts from, after fallbacks.
type Selection struct {
	Spec   model.AsteroidSpec
	Fields map[string]string
	// Defaulted lists the fields that fell back to a default value.
	Defaulted []string
}

// Field returns a display field or "N/A".
func (s Selection) Field(key string) string {
	if v, ok := s.Fields[key]; ok && v != "" {
		return v
	}
	return notAvailable
}

// Hazardous derives the hazard flag from the composition label.
func (s Selection) Hazardous() bool {
	return s.Fields[KeyComposition] != LabelNonHazardous
}

// ParseHandoff extracts the asteroid from a handoff map. It never fails: a
// nil or empty map selects DefaultHandoff, and every numeric field that is
// missing or unparseable falls back to its default.
func ParseHandoff(fields map[string]string) Selection {
	if len(fields) == 0 {
		fields = DefaultHandoff()
	} else {
		fields = maps.Clone(fields)
	}
	sel := Selection{Fields: fields}

	sel.Spec.Name = fields[KeyName]
	if sel.Spec.Name == "" {
		sel.Spec.Name = DefaultAsteroidName
		sel.Defaulted = append(sel.Defaulted, KeyName)
	}

	if d, ok := positive(fields[KeyDiameterMaxKm]); ok {
		sel.Spec.DiameterKm = d
	} else if d, ok := lastNumber(fields[KeySize]); ok {
		sel.Spec.DiameterKm = d
	} else {
		sel.Spec.DiameterKm = core.DefaultDiameterKm
		sel.Defaulted = append(sel.Defaulted, "diameter")
	}

	if v, ok := positive(fields[KeyVelocityKmS]); ok {
		sel.Spec.VelocityKmS = v
	} else if v, ok := firstNumber(fields[KeyVelocity]); ok {
		sel.Spec.VelocityKmS = v
	} else {
		sel.Spec.VelocityKmS = core.DefaultVelocityKmS
		sel.Defaulted = append(sel.Defaulted, "velocity")
	}
	return sel
}

// EncodeHandoff serializes fields as a JSON object after checking the
// size bounds.
func EncodeHandoff(fields map[string]string) ([]byte, error) {
	if err := checkBounds(fields); err != nil {
		return nil, err
	}
	m := make(map[string]any, len(fields))
	for k, v := range fields {
		m[k] = v
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandoffMalformed, err)
	}
	b, err := protojson.MarshalOptions{Multiline: true}.Marshal(st)
	if err != nil {
		return nil, err
	}
	if len(b) > MaxHandoffBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrHandoffTooLarge, len(b))
	}
	return b, nil
}

// DecodeHandoff parses a JSON object into a handoff map. Numbers and
// booleans are kept as their text form; nested values are rejected.
func DecodeHandoff(b []byte) (map[string]string, error) {
	if len(b) > MaxHandoffBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrHandoffTooLarge, len(b))
	}
	var st structpb.Struct
	if err := protojson.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandoffMalformed, err)
	}

	out := make(map[string]string, len(st.GetFields()))
	for k, v := range st.GetFields() {
		switch kind := v.GetKind().(type) {
		case *structpb.Value_StringValue:
			out[k] = kind.StringValue
		case *structpb.Value_NumberValue:
			out[k] = formatFloat(kind.NumberValue)
		case *structpb.Value_BoolValue:
			out[k] = strconv.FormatBool(kind.BoolValue)
		case *structpb.Value_NullValue:
		default:
			return nil, fmt.Errorf("%w: field %q is not a scalar", ErrHandoffMalformed, k)
		}
	}
	if err := checkBounds(out); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadHandoff reads at most MaxHandoffBytes from r and parses the
// selection. An empty or invalid handoff yields the default asteroid and
// the decode error, which callers log and otherwise ignore.
func LoadHandoff(r io.Reader) (Selection, error) {
	if r == nil {
		return ParseHandoff(nil), nil
	}
	b, err := io.ReadAll(io.LimitReader(r, MaxHandoffBytes+1))
	if err != nil {
		return ParseHandoff(nil), err
	}
	if len(b) == 0 {
		return ParseHandoff(nil), nil
	}
	fields, err := DecodeHandoff(b)
	if err != nil {
		return ParseHandoff(nil), err
	}
	return ParseHandoff(fields), nil
}

// SortedKeys returns the handoff keys in a stable order.
func SortedKeys(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func checkBounds(fields map[string]string) error {
	if len(fields) > MaxHandoffKeys {
		return fmt.Errorf("%w: %d keys", ErrHandoffTooLarge, len(fields))
	}
	for k, v := range fields {
		if len(v) > MaxValueLength {
			return fmt.Errorf("%w: value of %q is %d bytes", ErrHandoffTooLarge, k, len(v))
		}
	}
	return nil
}

func positive(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !(v > 0) || v > 1e12 {
		return 0, false
	}
	return v, true
}

func firstNumber(s string) (float64, bool) {
	m := numberPattern.FindAllString(s, -1)
	if len(m) == 0 {
		return 0, false
	}
	return positive(m[0])
}

func lastNumber(s string) (float64, bool) {
	m := numberPattern.FindAllString(s, -1)
	if len(m) == 0 {
		return 0, false
	}
	return positive(m[len(m)-1])
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
