package sfx

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/cwbudde/algo-sfx/dsp/effects"
)

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	factory := func(Params) (Module, error) { return newStub("x", Capabilities{}), nil }

	if err := r.Register("", factory); !errors.Is(err, ErrInvalidParam) {
		t.Fatalf("Register(\"\") error = %v, want ErrInvalidParam", err)
	}
	if err := r.Register("x", nil); !errors.Is(err, ErrInvalidParam) {
		t.Fatalf("Register(nil factory) error = %v, want ErrInvalidParam", err)
	}
	if err := r.Register("x", factory); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	err := r.Register("x", factory)
	if !errors.Is(err, ErrDuplicateModule) {
		t.Fatalf("Register() duplicate error = %v, want ErrDuplicateModule", err)
	}
	if !strings.Contains(err.Error(), `"x"`) {
		t.Fatalf("duplicate error %q does not name the kind", err)
	}

	if _, ok := r.Lookup("x"); !ok {
		t.Fatal("Lookup(x) not found")
	}
	if f, ok := r.Lookup("y"); ok || f != nil {
		t.Fatal("Lookup(y) found an unregistered kind")
	}

	defer func() {
		rec := recover()
		if e, ok := rec.(error); !ok || !errors.Is(e, ErrDuplicateModule) {
			t.Fatalf("MustRegister() panic = %v, want ErrDuplicateModule", rec)
		}
	}()
	r.MustRegister("x", factory)
}

func TestRegistryNewUnknownKind(t *testing.T) {
	_, err := DefaultRegistry().New(Params{Kind: "chorus"})
	if !errors.Is(err, ErrUnknownModule) {
		t.Fatalf("New() error = %v, want ErrUnknownModule", err)
	}

	want := "granular, randomize, reverb, spatializer"
	if !strings.Contains(err.Error(), want) {
		t.Fatalf("New() error = %q, want the known kinds %q", err, want)
	}
}

func TestRegistryKinds(t *testing.T) {
	if got := NewRegistry().Kinds(); len(got) != 0 {
		t.Fatalf("Kinds() on empty registry = %v", got)
	}

	got := DefaultRegistry().Kinds()
	want := []string{KindGranular, KindRandomize, KindReverb, KindSpatializer}
	if len(got) != len(want) {
		t.Fatalf("Kinds() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Kinds() = %v, want %v", got, want)
		}
	}
}

func TestDefaultRegistryBuildsEveryKind(t *testing.T) {
	r := DefaultRegistry()

	rev, err := r.New(Params{Kind: KindReverb, Enabled: true, Num: map[string]float64{
		"roomSize": 0.9, "damping": 0.1, "width": 0.5, "mix": 0.7,
	}})
	if err != nil {
		t.Fatalf("reverb: %v", err)
	}
	want := effects.ReverbParams{RoomSize: 0.9, Damping: 0.1, Width: 0.5, Mix: 0.7}
	if got := rev.(*ReverbModule).Params(); got != want {
		t.Fatalf("reverb params = %+v, want %+v", got, want)
	}

	gran, err := r.New(Params{Kind: KindGranular, Num: map[string]float64{
		"grainSize": 0.1, "grainCount": 11.6, "bufferLength": 1.5,
	}})
	if err != nil {
		t.Fatalf("granular: %v", err)
	}
	gp := gran.(*GranularModule).Params()
	if gp.GrainSeconds != 0.1 || gp.GrainCount != 12 || gp.BufferSeconds != 1.5 {
		t.Fatalf("granular params = %+v", gp)
	}
	if gp.Mix != effects.DefaultGranularParams().Mix {
		t.Fatalf("missing mix should default, got %v", gp.Mix)
	}
	if gran.Enabled() {
		t.Fatal("Enabled=false in params must disable the module")
	}

	rnd, err := r.New(Params{Kind: KindRandomize, Enabled: true, Num: map[string]float64{"pitchMin": 0.5}})
	if err != nil {
		t.Fatalf("randomize: %v", err)
	}
	if got := rnd.(*RandomizeModule).Params().PitchMin; got != 0.5 {
		t.Fatalf("pitchMin = %v, want 0.5", got)
	}

	spat, err := r.New(Params{
		Kind:    KindSpatializer,
		Enabled: true,
		Num:     map[string]float64{"spatialBlend": 0.25, "maxDistance": 40},
		Str:     map[string]string{"rolloff": "linear"},
	})
	if err != nil {
		t.Fatalf("spatializer: %v", err)
	}
	s := spat.(*SpatializerModule).Settings()
	if s.Blend != 0.25 || s.MaxDistance != 40 || s.MinDistance != 1 || s.Rolloff != RolloffLinear {
		t.Fatalf("spatial settings = %+v", s)
	}
}

func TestDefaultRegistryRejectsOutOfRange(t *testing.T) {
	_, err := DefaultRegistry().New(Params{Kind: KindReverb, Num: map[string]float64{"roomSize": 3}})
	if !errors.Is(err, ErrInvalidParam) {
		t.Fatalf("New() error = %v, want ErrInvalidParam", err)
	}
}

func TestParamsAccessors(t *testing.T) {
	p := Params{
		Num: map[string]float64{"a": 1.5, "nan": math.NaN(), "inf": math.Inf(1), "n": 2.4},
		Str: map[string]string{"s": "v"},
	}

	if p.GetNum("a", 0) != 1.5 || p.GetNum("missing", 7) != 7 {
		t.Fatal("GetNum() mismatch")
	}
	if p.GetNum("nan", 3) != 3 || p.GetNum("inf", 4) != 4 {
		t.Fatal("non-finite values must fall back to the default")
	}
	if p.GetInt("n", 0) != 2 || p.GetInt("missing", 9) != 9 {
		t.Fatal("GetInt() mismatch")
	}
	if p.GetStr("s", "") != "v" || p.GetStr("missing", "d") != "d" {
		t.Fatal("GetStr() mismatch")
	}

	var empty Params
	if empty.GetNum("a", 1) != 1 || empty.GetStr("a", "x") != "x" {
		t.Fatal("zero Params must return defaults")
	}
}

func TestParseParams(t *testing.T) {
	num, str := parseParams(map[string]any{"f": 0.5, "b": true, "off": false, "s": "x", "skip": []any{1}})

	if num["f"] != 0.5 || num["b"] != 1 || num["off"] != 0 || str["s"] != "x" {
		t.Fatalf("parseParams() = %v, %v", num, str)
	}
	if _, ok := num["skip"]; ok {
		t.Fatal("unsupported values must be ignored")
	}

	num, str = parseParams(nil)
	if len(num) != 0 || len(str) != 0 {
		t.Fatal("nil params should parse to empty maps")
	}
}
