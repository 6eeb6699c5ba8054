package sfx

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testBank = `{
  "sounds": [
    {
      "name": "boom",
      "clips": ["boom1.wav", "boom2.wav"],
      "modules": [
        {"type": "randomize", "params": {"pitchMin": 0.9, "pitchMax": 1.1}},
        {"type": "reverb", "enabled": false, "params": {"roomSize": 0.8}}
      ]
    },
    {"name": "click", "clips": ["boom1.wav"]}
  ]
}`

type fakeLoader struct {
	calls []string
}

func (f *fakeLoader) load(ref string) (*Clip, error) {
	f.calls = append(f.calls, ref)
	return NewClip(ref, 1000, 1, []float64{0.1, 0.2, 0.3})
}

func TestLoadBank(t *testing.T) {
	loader := &fakeLoader{}

	bank, err := LoadBank(strings.NewReader(testBank), nil, loader.load)
	if err != nil {
		t.Fatalf("LoadBank() error = %v", err)
	}

	if names := bank.Names(); len(names) != 2 || names[0] != "boom" || names[1] != "click" {
		t.Fatalf("Names() = %v", names)
	}

	if len(loader.calls) != 2 {
		t.Fatalf("loader called %d times, want once per distinct clip", len(loader.calls))
	}

	boom := bank.Sound("boom")
	if len(boom.Clips) != 2 || len(boom.Modules) != 2 {
		t.Fatalf("boom = %d clips, %d modules", len(boom.Clips), len(boom.Modules))
	}
	if !boom.Modules[0].Enabled() {
		t.Fatal("module without enabled field should be enabled")
	}
	if boom.Modules[1].Enabled() {
		t.Fatal("enabled=false was ignored")
	}
	if bank.Sound("click").Clips[0] != boom.Clips[0] {
		t.Fatal("shared clip reference should decode once")
	}
	if bank.Sound("missing") != nil {
		t.Fatal("Sound() should return nil for unknown names")
	}
}

func TestLoadBankErrors(t *testing.T) {
	loader := &fakeLoader{}

	tests := []struct {
		name string
		json string
		is   error
	}{
		{"bad json", `{`, nil},
		{"empty", `{"sounds": []}`, ErrEmptyBank},
		{"unnamed", `{"sounds": [{"clips": []}]}`, nil},
		{"duplicate", `{"sounds": [{"name": "a"}, {"name": "a"}]}`, nil},
		{"unknown module", `{"sounds": [{"name": "a", "modules": [{"type": "flanger"}]}]}`, ErrUnknownModule},
		{"bad param", `{"sounds": [{"name": "a", "modules": [{"type": "reverb", "params": {"mix": 4}}]}]}`, ErrInvalidParam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBank(strings.NewReader(tt.json), DefaultRegistry(), loader.load)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Fatalf("error = %v, want %v", err, tt.is)
			}
		})
	}

	errDecode := errors.New("decode failed")
	failing := func(string) (*Clip, error) { return nil, errDecode }
	if _, err := LoadBank(strings.NewReader(testBank), nil, failing); !errors.Is(err, errDecode) {
		t.Fatalf("LoadBank() error = %v, want %v", err, errDecode)
	}

	if _, err := LoadBank(strings.NewReader(testBank), nil, nil); err == nil {
		t.Fatal("expected error for nil loader")
	}
}

func TestLoadBankFileResolvesRelativeClips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bank.json")
	if err := os.WriteFile(path, []byte(testBank), 0o600); err != nil {
		t.Fatal(err)
	}

	loader := &fakeLoader{}
	if _, err := LoadBankFile(path, nil, loader.load); err != nil {
		t.Fatalf("LoadBankFile() error = %v", err)
	}

	for _, ref := range loader.calls {
		if filepath.Dir(ref) != dir {
			t.Fatalf("clip %q not resolved against %q", ref, dir)
		}
	}

	if _, err := LoadBankFile(filepath.Join(dir, "missing.json"), nil, loader.load); err == nil {
		t.Fatal("expected error for missing file")
	}
}
