// Package async provides a minimal future abstraction for fire-and-forget
// side effects that still need to be observable in tests.
//
// Exec runs a function on its own goroutine and returns an ExecFuture the
// caller may Await, poll, or simply drop. The certificate issuance service
// uses it to dispatch outcome notifications without coupling the issuance
// verdict to notification delivery.
//
//	future := async.Exec(ctx, record, func(ctx context.Context, rec record.Record) error {
//		return notifier.Notify(ctx, rec.ContactEmail, subject, body)
//	})
//
//	// Optionally wait with a bound:
//	if err := future.AwaitWithTimeout(5 * time.Second); errors.Is(err, async.ErrTimeout) {
//		log.Println("notification still in flight")
//	}
//
// A context cancelled before the function starts short-circuits the future
// with the context's error, so pre-cancelled work never spawns side effects.
package async
