package service

import (
	"context"
	"fmt"
	"log/slog"
)

// Sweep releases every hold whose deadline has passed and returns how many
// seats it released.  Each release is conditional on the hold still being
// expired when the update runs, so a hold refreshed concurrently survives.
// Sweep is idempotent; running it twice in a row releases nothing the
// second time.
func (s *ReservationService) Sweep(ctx context.Context) (int64, error) {
	now := s.now()
	var released int64
	perTrip := map[uint64]int{}
	for {
		batch, err := s.seats.ListExpired(ctx, now, s.sweepBatch)
		if err != nil {
			return released, fmt.Errorf("list expired holds: %w", err)
		}
		for _, h := range batch {
			ok, err := s.seats.ExpireHold(ctx, h.SeatID, now)
			if err != nil {
				return released, fmt.Errorf("expire seat %d: %w", h.SeatID, err)
			}
			if ok {
				released++
				perTrip[h.TripID]++
			}
		}
		if len(batch) < s.sweepBatch {
			break
		}
	}
	for tripID, n := range perTrip {
		s.log.Info("expired holds released", slog.Uint64("trip_id", tripID), slog.Int("seats", n))
	}
	return released, nil
}
