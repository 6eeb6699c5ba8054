package sfx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// ClipLoader resolves a clip reference from a bank into decoded audio.
type ClipLoader func(ref string) (*Clip, error)

type bankFile struct {
	Sounds []bankSound `json:"sounds"`
}

type bankSound struct {
	Name    string       `json:"name"`
	Clips   []string     `json:"clips"`
	Modules []bankModule `json:"modules"`
}

type bankModule struct {
	Type    string `json:"type"`
	Enabled *bool  `json:"enabled"`
	Params  any    `json:"params"`
}

// Bank is a set of named sound definitions loaded from JSON.
type Bank struct {
	sounds map[string]*SoundDefinition
}

// Sound returns the definition called name, or nil.
func (b *Bank) Sound(name string) *SoundDefinition {
	if b == nil {
		return nil
	}
	return b.sounds[name]
}

// Names returns the sound names in sorted order.
func (b *Bank) Names() []string {
	if b == nil {
		return nil
	}

	names := make([]string, 0, len(b.sounds))
	for name := range b.sounds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadBank decodes a JSON sound bank. Modules are built through reg, which
// defaults to DefaultRegistry; clips through load, which is called once per
// distinct reference. A module without an "enabled" field is enabled.
func LoadBank(r io.Reader, reg *Registry, load ClipLoader) (*Bank, error) {
	if load == nil {
		return nil, errors.New("sfx: nil clip loader")
	}

	if reg == nil {
		reg = DefaultRegistry()
	}

	var file bankFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("sfx: invalid sound bank json: %w", err)
	}

	if len(file.Sounds) == 0 {
		return nil, ErrEmptyBank
	}

	clips := map[string]*Clip{}
	bank := &Bank{sounds: make(map[string]*SoundDefinition, len(file.Sounds))}

	for i, s := range file.Sounds {
		if s.Name == "" {
			return nil, fmt.Errorf("sfx: sound %d has no name", i)
		}

		if _, dup := bank.sounds[s.Name]; dup {
			return nil, fmt.Errorf("sfx: duplicate sound %q", s.Name)
		}

		def := &SoundDefinition{Name: s.Name}

		for _, ref := range s.Clips {
			clip, ok := clips[ref]
			if !ok {
				var err error
				clip, err = load(ref)
				if err != nil {
					return nil, fmt.Errorf("sfx: sound %q: clip %q: %w", s.Name, ref, err)
				}
				clips[ref] = clip
			}
			def.Clips = append(def.Clips, clip)
		}

		for _, bm := range s.Modules {
			num, str := parseParams(bm.Params)
			enabled := bm.Enabled == nil || *bm.Enabled

			m, err := reg.New(Params{Kind: bm.Type, Enabled: enabled, Num: num, Str: str})
			if err != nil {
				return nil, fmt.Errorf("sfx: sound %q: %w", s.Name, err)
			}
			def.Modules = append(def.Modules, m)
		}

		bank.sounds[s.Name] = def
	}

	return bank, nil
}

// LoadBankFile reads a bank from path. Relative clip references are
// resolved against the bank's directory before being handed to load.
func LoadBankFile(path string, reg *Registry, load ClipLoader) (*Bank, error) {
	if load == nil {
		return nil, errors.New("sfx: nil clip loader")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sfx: open sound bank: %w", err)
	}
	defer f.Close()

	dir := filepath.Dir(path)
	resolve := func(ref string) (*Clip, error) {
		if !filepath.IsAbs(ref) {
			ref = filepath.Join(dir, ref)
		}
		return load(ref)
	}

	return LoadBank(f, reg, resolve)
}
