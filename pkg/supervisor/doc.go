// Package supervisor provides the runtime lifecycle supervisor for a
// long-running managed-component container.
//
// Among cooperating processes sharing a filesystem location, exactly one
// is active (running the container at full readiness) while the rest
// idle at standby, ready to take over. The election is driven by a
// polled lock; the active instance additionally exposes a TCP control
// channel accepting an orderly-stop command.
//
// # Basic Usage
//
//	cfg := supervisor.DefaultConfig()
//	cfg.LockFile = "/var/lib/myapp/lock"
//
//	sup, err := supervisor.New(cfg, myContainer,
//	    supervisor.WithLogger(log.NewZerologAdapter()),
//	)
//	if err != nil {
//	    return err
//	}
//
//	if err := sup.Launch(ctx); err != nil {
//	    _, _ = sup.Destroy()
//	    return err
//	}
//
//	_ = sup.AwaitStop()
//	stopped, err := sup.Destroy()
//
// A Supervisor is single-use: the process boundary constructs a fresh
// one for each restart iteration and decides force-exit versus restart
// when Destroy reports a timed-out stop.
//
// # Election
//
// The election loop polls Lock.Acquire every LockDelay. On success it
// raises the container readiness to DefaultStartLevel and starts the
// shutdown channel (at most once per Supervisor, however many times the
// lock is lost and re-won). On loss of a held lock the instance is
// demoted back to LockStartLevel and re-contends, rather than exiting:
// a deliberate fail-back policy.
//
// # Shutdown
//
// Destroy stops the container asynchronously and polls WaitForStop in
// ShutdownStep increments up to ShutdownTimeout, notifying the optional
// ShutdownCallback each step with the remaining budget. The lock is
// released exactly once on every exit path.
//
// # Lifecycle States
//
// A Supervisor is in one of five states: [StateStarting], [StateElecting],
// [StateActive], [StateStopping], [StateStopped]. Use [Supervisor.Status]
// to query it and [WithEventHandler] to observe transitions.
package supervisor
