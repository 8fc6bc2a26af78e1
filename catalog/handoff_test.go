package catalog

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/signalsfoundry/asteroid-defense/core"
	"github.com/signalsfoundry/asteroid-defense/model"
)

func TestParseHandoff_Default(t *testing.T) {
	sel := ParseHandoff(nil)
	if sel.Spec.Name != DefaultAsteroidName {
		t.Fatalf("name = %q", sel.Spec.Name)
	}
	// the default size is "0.2 - 0.5 km": the upper bound wins.
	if sel.Spec.DiameterKm != 0.5 {
		t.Fatalf("diameter = %v, want 0.5", sel.Spec.DiameterKm)
	}
	if sel.Spec.VelocityKmS != 15 {
		t.Fatalf("velocity = %v, want 15", sel.Spec.VelocityKmS)
	}
	if len(sel.Defaulted) != 0 {
		t.Fatalf("default handoff should parse cleanly, defaulted %v", sel.Defaulted)
	}
	if !sel.Hazardous() {
		t.Fatalf("default asteroid should be hazardous")
	}
}

func TestParseHandoff_Fallbacks(t *testing.T) {
	cases := []struct {
		name         string
		fields       map[string]string
		wantDiameter float64
		wantVelocity float64
		wantDefault  []string
	}{
		{
			name:         "raw values win",
			fields:       map[string]string{KeyName: "A", KeyDiameterMaxKm: "0.731", KeySize: "0.10 - 0.20 km", KeyVelocityKmS: "21.5", KeyVelocity: "9.00 km/s"},
			wantDiameter: 0.731,
			wantVelocity: 21.5,
		},
		{
			name:         "formatted strings",
			fields:       map[string]string{KeyName: "B", KeySize: "0.10 - 0.20 km", KeyVelocity: "9.50 km/s"},
			wantDiameter: 0.2,
			wantVelocity: 9.5,
		},
		{
			name:         "bad raw falls to formatted",
			fields:       map[string]string{KeyName: "C", KeyDiameterMaxKm: "-1", KeySize: "0.4 km", KeyVelocityKmS: "abc", KeyVelocity: "12 km/s"},
			wantDiameter: 0.4,
			wantVelocity: 12,
		},
		{
			name:         "nothing parseable",
			fields:       map[string]string{KeyName: "D", KeySize: "unknown", KeyVelocity: "fast"},
			wantDiameter: core.DefaultDiameterKm,
			wantVelocity: core.DefaultVelocityKmS,
			wantDefault:  []string{"diameter", "velocity"},
		},
		{
			name:         "missing name",
			fields:       map[string]string{KeySize: "1 km", KeyVelocity: "20 km/s"},
			wantDiameter: 1,
			wantVelocity: 20,
			wantDefault:  []string{KeyName},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sel := ParseHandoff(tc.fields)
			if sel.Spec.DiameterKm != tc.wantDiameter {
				t.Fatalf("diameter = %v, want %v", sel.Spec.DiameterKm, tc.wantDiameter)
			}
			if sel.Spec.VelocityKmS != tc.wantVelocity {
				t.Fatalf("velocity = %v, want %v", sel.Spec.VelocityKmS, tc.wantVelocity)
			}
			if !slices.Equal(sel.Defaulted, tc.wantDefault) {
				t.Fatalf("defaulted = %v, want %v", sel.Defaulted, tc.wantDefault)
			}
		})
	}
}

func TestHandoffFromRecord(t *testing.T) {
	h := 22.1
	r := model.Record{
		Name:              "(2025 AB)",
		DiameterMinKm:     0.2,
		DiameterMaxKm:     0.5,
		AbsoluteMagnitude: &h,
		IsHazardous:       false,
		VelocityKmS:       15,
		MissDistanceKm:    25000000.4,
		CloseApproachDate: "2025-10-26",
	}
	fields := HandoffFromRecord(r)

	want := map[string]string{
		KeySize:         "0.20 - 0.50 km",
		KeyVelocity:     "15.00 km/s",
		KeyMissDistance: "25,000,000 km",
		KeyMagnitude:    "22.10 mag",
		KeyComposition:  LabelNonHazardous,
		KeyDate:         "2025-10-26",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Fatalf("%s = %q, want %q", k, fields[k], v)
		}
	}

	sel := ParseHandoff(fields)
	if sel.Spec.DiameterKm != 0.5 || sel.Spec.VelocityKmS != 15 || sel.Spec.Name != r.Name {
		t.Fatalf("parsed spec = %+v", sel.Spec)
	}
	if sel.Hazardous() {
		t.Fatalf("non-hazardous record parsed as hazardous")
	}

	r.AbsoluteMagnitude = nil
	if got := HandoffFromRecord(r)[KeyMagnitude]; got != "N/A" {
		t.Fatalf("missing magnitude = %q", got)
	}
}

func TestEncodeDecodeHandoff(t *testing.T) {
	fields := DefaultHandoff()
	b, err := EncodeHandoff(fields)
	if err != nil {
		t.Fatalf("EncodeHandoff: %v", err)
	}
	got, err := DecodeHandoff(b)
	if err != nil {
		t.Fatalf("DecodeHandoff: %v", err)
	}
	if len(got) != len(fields) || got[KeySize] != fields[KeySize] {
		t.Fatalf("decoded %v, want %v", got, fields)
	}
}

func TestDecodeHandoff_Scalars(t *testing.T) {
	got, err := DecodeHandoff([]byte(`{"name":"X","diameter_max_km":0.75,"is_hazardous":true,"note":null}`))
	if err != nil {
		t.Fatalf("DecodeHandoff: %v", err)
	}
	if got[KeyDiameterMaxKm] != "0.75" || got["is_hazardous"] != "true" {
		t.Fatalf("decoded %v", got)
	}
	if _, ok := got["note"]; ok {
		t.Fatalf("null value kept")
	}
}

func TestDecodeHandoff_Rejects(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want error
	}{
		{"not json", "size=big", ErrHandoffMalformed},
		{"nested", `{"size":{"min":1}}`, ErrHandoffMalformed},
		{"long value", `{"name":"` + strings.Repeat("a", MaxValueLength+1) + `"}`, ErrHandoffTooLarge},
		{"too big", `{"name":"` + strings.Repeat("a", MaxHandoffBytes) + `"}`, ErrHandoffTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeHandoff([]byte(tc.in)); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestEncodeHandoff_TooManyKeys(t *testing.T) {
	fields := make(map[string]string)
	for i := 0; i <= MaxHandoffKeys; i++ {
		fields[strings.Repeat("k", i+1)] = "v"
	}
	if _, err := EncodeHandoff(fields); !errors.Is(err, ErrHandoffTooLarge) {
		t.Fatalf("err = %v, want ErrHandoffTooLarge", err)
	}
}

func TestLoadHandoff(t *testing.T) {
	sel, err := LoadHandoff(strings.NewReader(""))
	if err != nil || sel.Spec.Name != DefaultAsteroidName {
		t.Fatalf("empty handoff: sel=%+v err=%v", sel.Spec, err)
	}

	sel, err = LoadHandoff(strings.NewReader("{broken"))
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if sel.Spec.DiameterKm != 0.5 || sel.Spec.VelocityKmS != 15 {
		t.Fatalf("broken handoff should fall back to the default asteroid: %+v", sel.Spec)
	}

	sel, err = LoadHandoff(strings.NewReader(`{"name":"Bennu","size":"0.49 - 0.51 km","velocity":"6.14 km/s"}`))
	if err != nil {
		t.Fatalf("LoadHandoff: %v", err)
	}
	if sel.Spec.Name != "Bennu" || sel.Spec.DiameterKm != 0.51 || sel.Spec.VelocityKmS != 6.14 {
		t.Fatalf("spec = %+v", sel.Spec)
	}
	if sel.Field(KeyMissDistance) != "N/A" {
		t.Fatalf("missing field = %q", sel.Field(KeyMissDistance))
	}
}

func TestParseHandoff_CopiesFields(t *testing.T) {
	fields := map[string]string{KeyName: "(2025 AA)", KeySize: "0.10 - 0.30 km"}
	sel := ParseHandoff(fields)
	fields[KeyName] = "changed"
	fields[KeySize] = "9 km"
	if sel.Field(KeyName) != "(2025 AA)" || sel.Field(KeySize) != "0.10 - 0.30 km" {
		t.Fatalf("selection follows caller map: name=%q size=%q", sel.Field(KeyName), sel.Field(KeySize))
	}
}

func TestSortedKeys(t *testing.T) {
	got := SortedKeys(map[string]string{KeyVelocity: "1", KeyDate: "2", KeyName: "3"})
	want := []string{KeyDate, KeyName, KeyVelocity}
	if !slices.Equal(got, want) {
		t.Fatalf("SortedKeys = %v, want %v", got, want)
	}
}
