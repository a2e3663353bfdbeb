package room

import (
	"context"
	"errors"
	"time"

	"github.com/Prsnt95/coup/internal/game"
)

type stopper interface {
	Stop() bool
}

type scheduler func(d time.Duration, f func()) stopper

func realScheduler(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}

// graceKey ties a pending timeout to the turn it was started in.
type graceKey struct {
	seat int
	gen  uint64
}

var errNothingAwaited = errors.New("seat is not awaited")

// scheduleGrace starts a timer for every disconnected seat the game is waiting
// on and drops timers left over from earlier turns.
func (r *Room) scheduleGrace() {
	if r.closed || r.broken {
		return
	}
	gen := r.g.TurnGeneration()
	for k, t := range r.timers {
		if k.gen != gen {
			t.Stop()
			delete(r.timers, k)
		}
	}
	for _, seat := range r.g.AwaitedSeats() {
		m, ok := r.members[seat]
		if !ok || m.connected() {
			continue
		}
		k := graceKey{seat: seat, gen: gen}
		if _, pending := r.timers[k]; pending {
			continue
		}
		r.timers[k] = r.afterFunc(r.grace, func() { r.expire(k) })
		r.logger.Debug().Int("seat", seat).Uint64("generation", gen).Dur("grace", r.grace).Msg("grace timer started")
	}
}

func (r *Room) cancelTimers(seat int) {
	for k, t := range r.timers {
		if k.seat == seat {
			t.Stop()
			delete(r.timers, k)
		}
	}
}

// expire acts for an absent seat once its grace period runs out. It does nothing
// if the seat came back or the turn moved on in the meantime.
func (r *Room) expire(k graceKey) {
	r.mu.Lock()
	delete(r.timers, k)
	m, ok := r.members[k.seat]
	if r.closed || !ok || m.connected() || r.g.TurnGeneration() != k.gen {
		r.mu.Unlock()
		return
	}
	err := r.guard(func() error { return r.actFor(k.seat, k.gen) })
	if err != nil {
		r.mu.Unlock()
		if !errors.Is(err, errNothingAwaited) {
			r.logger.Warn().Err(err).Int("seat", k.seat).Msg("grace timeout action failed")
		}
		return
	}
	r.logger.Info().Int("seat", k.seat).Uint64("generation", k.gen).Msg("acted for disconnected seat")
	fin := r.settle()
	r.mu.Unlock()
	r.publish(context.Background(), fin)
}

// actFor makes the smallest move that unblocks the table on behalf of seat.
func (r *Room) actFor(seat int, gen uint64) error {
	switch r.g.RoleOf(seat) {
	case game.RoleTurn:
		return r.g.ForceSkipCurrentTurn(seat, gen)
	case game.RoleResponder:
		return r.g.Pass(seat)
	case game.RoleChooser:
		return r.g.ChooseCard(seat, firstConcealed(r.g.PublicState(seat), seat))
	case game.RoleExchanger:
		ex := r.g.PublicState(seat).Exchange
		if ex == nil {
			return errNothingAwaited
		}
		keep := make([]int, ex.KeepCount)
		for i := range keep {
			keep[i] = i
		}
		return r.g.ChooseAmbassadorKeep(seat, keep)
	}
	return errNothingAwaited
}

func firstConcealed(s game.Snapshot, seat int) int {
	for _, p := range s.Players {
		if p.Seat != seat {
			continue
		}
		for i, c := range p.Cards {
			if !c.Revealed {
				return i
			}
		}
	}
	return 0
}
