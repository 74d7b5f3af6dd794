// Package device assembles a board: one actor runtime, the timer interrupt
// line and the timer actor, plus whatever components the board mounts.
//
// # Basic Usage
//
//	dev, err := device.Run(device.Config{Log: log},
//	    func(d *device.Device) {
//	        l := led.Mount(d.Runtime(), "led1", pin)
//	        led.MountBlinker(d.Runtime(), "blinker", l, d.Timer(), 500*time.Millisecond)
//	    },
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Stop()
//
// Components run before the runtime starts, so they may mount actors and
// bind them. Once Run returns the actor population is fixed.
//
// # Timer Hardware
//
// Without a Timer.Hardware factory the device drives its timer from the
// host clock. Tests pass a factory returning a [sim.StepTimer] to step
// through deadlines by hand:
//
//	var hw *sim.StepTimer
//	device.Config{Timer: device.TimerConfig{
//	    Hardware: func(line *irq.Line) hal.CountdownTimer {
//	        hw = sim.NewStepTimer(line)
//	        return hw
//	    },
//	}}
package device
