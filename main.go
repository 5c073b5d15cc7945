package main

import (
	"time"

	"iotflow-kernel/kernel"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	p := newPlatform()
	for {
		k := kernel.New(p)
		kernel.Supervise(k.Run, time.Sleep, p.Restart)
		// Only reached on host builds, where Restart returns: rebuild and go
		// again, same as a hardware reset would.
	}
}
