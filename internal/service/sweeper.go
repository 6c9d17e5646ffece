package service

import (
	"context"
	"log"
	"time"

	"github.com/cinetick/movie-booking-api/internal/repository"
)

// RunShowtimeSweeper periodically marks SCHEDULED showtimes whose
// occupied window (runtime plus turnaround buffer) has fully elapsed as
// COMPLETED, so listings and conflict checks only reason about live
// slots. Runs until ctx is cancelled.
func RunShowtimeSweeper(ctx context.Context, showtimes *repository.ShowtimeRepo, bufferMin int, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := showtimes.SweepCompleted(ctx, time.Now().UTC(), bufferMin)
			if err != nil {
				log.Printf("showtime-sweeper: sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("showtime-sweeper: marked %d showtime(s) completed", n)
			}
		}
	}
}
