package session

import (
	"github.com/itohio/gopcr/pkg/ramp"
	"github.com/itohio/gopcr/pkg/sched"
	"github.com/itohio/gopcr/pkg/wave"
	"github.com/womat/debug"
)

// Player replays a waveform through the ramp engine until aborted.
type Player struct {
	engine        *ramp.Engine
	abort         *sched.Abort
	gen           wave.Generator
	ticksPerPoint int
}

// NewPlayer creates a player. ticksPerPoint paces the sequence so that every
// set-point occupies one switching interval even when reached early.
func NewPlayer(engine *ramp.Engine, abort *sched.Abort, gen wave.Generator, ticksPerPoint int) *Player {
	if ticksPerPoint <= 0 {
		ticksPerPoint = engine.MaxTicks()
	}
	return &Player{
		engine:        engine,
		abort:         abort,
		gen:           gen,
		ticksPerPoint: ticksPerPoint,
	}
}

// Play first approaches the offset without a tolerance band, then loops the
// waveform sequence until an abort is latched or the clock stops.
func (p *Player) Play(kind wave.Kind, params wave.Params, tol float32) {
	if !p.engine.Approach(params.Offset) {
		return
	}
	debug.InfoLog.Printf("offset %.2f reached, playing %s", params.Offset, kind)

	seq := p.gen.NewSequence(kind, params)
	defer func() {
		debug.InfoLog.Printf("%s stopped after %d full cycles", kind, seq.Cycles())
	}()
	for !p.abort.Requested() && !p.engine.Halted() {
		pt := seq.Next()
		p.engine.Ramp(pt.Channel, pt.Target, tol)

		if rest := p.ticksPerPoint - p.engine.LastTicks(); rest > 0 {
			if !p.engine.Settle(rest) {
				return
			}
		}
	}
}
