// Package notify implements the asynchronous notification pipeline behind
// join requests: a durable, at-least-once work queue carrying
// "user requested to join broadcast X" events from the request path to a
// background worker that notifies the broadcast creator.
//
// # Delivery contract
//
// The engine enqueues an event after the join request is durably persisted
// in the authoritative store; a crash between persist and enqueue is the
// only inconsistency window, and it loses at most a notification, never a
// join request. Enqueue is a one-way send: the request path returns as soon
// as the message is stored and never waits on delivery.
//
// Delivery is at-least-once via lock leases. Claim marks a message
// processing and grants a lease; a worker that dies mid-dispatch leaves the
// lease to expire, after which the message is claimable again. Dispatchers
// must therefore tolerate duplicates.
//
// A message whose broadcast no longer exists is dropped with a log line,
// not failed: deletion between enqueue and processing is an expected race
// outcome. Dispatch errors are retried up to the message's attempt budget,
// then the message is moved to the dead-letter store, so one poisoned event
// never blocks the queue.
//
// # Usage
//
//	storage := notify.NewMemoryStorage()
//
//	queue, err := notify.NewQueue(storage)
//	// pass queue to the engine via broadcast.WithNotifier(queue)
//
//	dispatcher, err := notify.NewEmailDispatcher(sender, directory)
//	worker, err := notify.NewWorker(storage, broadcastStorage, dispatcher,
//		notify.WithPollInterval(time.Second),
//		notify.WithMaxConcurrent(5),
//	)
//
//	go worker.Start(ctx)
//	defer worker.Stop()
//
// Production storage backends live in integration/database/mongo and
// integration/database/pg.
package notify
