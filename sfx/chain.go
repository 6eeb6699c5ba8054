package sfx

import (
	"errors"
	"fmt"
)

type chainEntry struct {
	module Module
	proc   Processor
}

// EffectChain is the processing list of one play session. It is resolved
// once from a definition's modules and never changes afterwards; only each
// module's Enabled flag is consulted again per block.
type EffectChain struct {
	entries []chainEntry
	maxTail float64
}

// BuildChain initialises every enabled module against vc in definition
// order and freezes the ones that process audio. vc is reset to the session
// defaults first. Modules that fail to initialise are left out and their
// errors are joined into the returned error; the chain is still usable.
func BuildChain(modules []Module, vc *VoiceContext) (*EffectChain, error) {
	vc.reset()

	chain := &EffectChain{entries: make([]chainEntry, 0, len(modules))}

	var errs []error
	for _, m := range modules {
		if m == nil || !m.Enabled() {
			continue
		}

		if tail := m.TailTime(); tail > chain.maxTail {
			chain.maxTail = tail
		}

		caps := m.Capabilities()

		var proc Processor
		if caps.Init {
			p, err := m.Init(vc)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", m.Kind(), err))
				continue
			}
			proc = p
		}

		if caps.Process {
			chain.entries = append(chain.entries, chainEntry{module: m, proc: proc})
		}
	}

	return chain, errors.Join(errs...)
}

// Len returns the number of processing modules captured at session start.
func (c *EffectChain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// MaxTailTime is the longest tail among the modules enabled at session
// start, in seconds.
func (c *EffectChain) MaxTailTime() float64 {
	if c == nil {
		return 0
	}
	return c.maxTail
}

// Process runs the captured modules over block in order. Modules disabled
// since session start are skipped; modules without runtime state are
// skipped as well.
func (c *EffectChain) Process(block []float64, channels int) {
	if c == nil || channels <= 0 {
		return
	}

	for i := range c.entries {
		e := &c.entries[i]
		if e.proc == nil || !e.module.Enabled() {
			continue
		}
		e.proc.Process(block, channels)
	}
}
