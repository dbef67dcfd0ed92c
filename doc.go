// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package governor implements the core engine of a systematic-concurrency-
// testing runtime: a controlled scheduler that serializes nominally
// concurrent operations onto a single logical execution at well-defined
// scheduling points, a family of exploration strategies that choose the next
// runnable operation (or next non-deterministic value) at each such point,
// and the controlled synchronization primitives (mutex, semaphore, condition
// variable, task/thread adapters, concurrent collections) that rewritten
// user code is expected to call instead of their uncontrolled equivalents.
//
// # Architecture
//
// A [Scheduler] owns an [operationTable] of [Operation] values. User code —
// assumed already instrumented, per the scheduling-point contract below —
// calls [Scheduler.ScheduleNextOperation] at every scheduling point, which
// consults the active [strategy] (see the sibling governor/strategy
// package) to pick the next runnable operation, suspends the caller if it
// isn't the chosen one, and resumes the chosen operation's goroutine.
//
// The actor/state-machine runtime (governor/actor) and the specification
// monitor (governor/monitor) are layered on top of a Scheduler: each actor
// registers its own operation through [Scheduler.StartOperation], and
// monitors run synchronously inside the operation that notifies them.
//
// # Scheduling point contract
//
// Exactly one operation is ever "executing" within an iteration. The
// controlled primitives in this package emit a scheduling point when they
// lock, unlock, acquire, release, wait or signal (Mutex and Semaphore emit
// theirs after the lock or permit is taken or given back; [List] emits
// none), and a blocked caller parks its goroutine on a per-operation
// resume token until the scheduler hands control back.
//
// # Thread safety
//
// Under the Interleaving policy, the operation table, the active strategy's
// PRNG, and the monitor registry are single-writer (the scheduler
// goroutine) for the duration of one iteration — see [Scheduler.Policy].
// Under the Fuzzing policy they are guarded by a single mutex.
package governor
