// Package timer turns one hardware countdown timer into many logical
// deadlines.
//
// A [Multiplexer] keeps Capacity one-shot delay slots, each resuming a
// suspended caller, and Capacity schedule slots, each delivering a bound
// notification. The hardware always counts down the smallest remaining
// time. When it fires, the interrupt routine subtracts the elapsed time
// from every occupied slot, resumes or delivers those that reached zero,
// frees them and re-arms the hardware for the next smallest remaining time.
//
// Schedules do not repeat on their own. A recurring notification is an
// actor that schedules the next one from its handler:
//
//	actor.HandleNotify(func(hc actor.HandlerCtx, b Blinker, s State) actor.Completion[Blinker] {
//	    _ = timer.Schedule(b.timer, b.delay, s.Next(), b.self)
//	    return actor.Immediate(b)
//	})
//
// Full pools are reported with [ErrNoCapacity].
package timer
