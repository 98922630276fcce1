// +build linux

package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/roverlabs/gorover/onboard/hardware"
	"github.com/roverlabs/gorover/onboard/hwio"
)

func main() {
	trigger := flag.String("trigger", "GPIO25", "trigger pin name")
	echo := flag.String("echo", "GPIO24", "echo pin name")
	count := flag.Int("count", 10, "measurements to take")
	flag.Parse()

	if err := hwio.HostInit(); err != nil {
		panic(err)
	}

	out, err := hwio.NewHostOutput(*trigger)
	if err != nil {
		panic(err)
	}

	in, err := hwio.NewHostInput(*echo, hwio.PullUp)
	if err != nil {
		panic(err)
	}

	ranger, err := hardware.NewRanger(new(hwio.MonotonicCounter), out, in, hardware.DefaultRangerProfile())
	if err != nil {
		panic(err)
	}

	for i := 0; i < *count; i++ {
		m := ranger.Measure()
		fmt.Printf("%2d: %s\n", i, m)
		time.Sleep(60 * time.Millisecond) // the sensor needs the echo to die down between cycles
	}

	fmt.Println("Success! Ranger is wired and measuring.")
}
