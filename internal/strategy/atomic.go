package strategy

import (
	"context"
	"fmt"

	"github.com/elys-network/lpstrategy/internal/types"
)

// atomic runs fn as one unit of work. Nested or concurrent entry is rejected, and when fn
// fails or panics every collaborator change and every settings change it made is undone.
func (s *Strategy) atomic(ctx context.Context, name string, fn func() error) (err error) {
	if !s.busy.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s while another call is in flight", ErrReentrantCall, name)
	}
	defer s.busy.Store(false)

	snap := s.journal.Snapshot()
	saved := s.current()
	s.stats = types.NewHarvestStats()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrCallPanicked, name, r)
		}
		if err != nil {
			s.journal.RevertToSnapshot(snap)
			s.restore(saved)
			l := logFor(ctx, s.log)
			l.Warn().Err(err).Str("call", name).Msg("Call failed, state rolled back")
			return
		}
		s.journal.DiscardSnapshot(snap)
	}()

	return fn()
}

func (s *Strategy) restore(saved settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = saved
	s.guard.Config = saved.params.Slippage
}

// update mutates settings under the lock.
func (s *Strategy) update(fn func(*settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.set)
	s.guard.Config = s.set.params.Slippage
}
