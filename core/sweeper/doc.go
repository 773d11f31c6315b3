// Package sweeper reconciles stored broadcast status with the expiry
// deadline. Reads and writes already treat a past deadline as expired, so
// the sweeper's job is convergence: it periodically flips due broadcasts to
// their terminal status in storage and drops the cached listing so
// subsequent reads rebuild it.
//
// Passes run on a cron schedule; an overlapping pass is skipped, never
// queued. Join requests on swept broadcasts are left untouched, frozen in
// whatever state they were in at expiry.
//
// Usage:
//
//	sw, err := sweeper.NewSweeper(store,
//		sweeper.WithSchedule("@every 1m"),
//		sweeper.WithCacheInvalidation(redisCache, "broadcasts:active"),
//		sweeper.WithLogger(log),
//	)
//	if err != nil {
//		return err
//	}
//
//	// Coordinated lifecycle via errgroup:
//	g.Go(sw.Run(ctx))
//
// SweepNow runs a single out-of-schedule pass, useful on startup and in
// admin tooling.
package sweeper
