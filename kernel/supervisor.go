package kernel

import "time"

// restartDelay gives a human at the console time to see the crash banner
// before the device resets.
const restartDelay = 10 * time.Second

// Supervise runs fn under a crash guard. A panic anywhere below the main
// loop is logged, the restart delay elapses and restart fires. On hardware
// restart is a CPU reset and never returns; on a host build it returns so
// the caller can rebuild and re-run.
func Supervise(fn func(), sleep func(d time.Duration), restart func()) {
	defer func() {
		if r := recover(); r != nil {
			println("[kernel] fatal error in main loop, restarting")
			if err, ok := r.(error); ok {
				println("[kernel]", err.Error())
			}
			sleep(restartDelay)
			restart()
		}
	}()
	fn()
}
