package hwio

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var (
	hostOnce sync.Once
	hostErr  error
)

// HostInit loads the periph host drivers. Every pin constructor calls it;
// the underlying init runs once per process.
func HostInit() error {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	return hostErr
}

type HostOutput struct {
	pin gpio.PinIO
}

// NewHostOutput resolves a GPIO pin by name and configures it as an
// output driven low.
func NewHostOutput(name string) (o *HostOutput, err error) {
	if err = HostInit(); err != nil {
		return
	}

	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("no GPIO pin named %q", name)
	}
	if err = pin.Out(gpio.Low); err != nil {
		return
	}

	o = &HostOutput{pin: pin}
	return
}

func (o *HostOutput) High() {
	o.pin.Out(gpio.High)
}

func (o *HostOutput) Low() {
	o.pin.Out(gpio.Low)
}

func (o *HostOutput) Set(high bool) {
	o.pin.Out(gpio.Level(high))
}

type HostInput struct {
	pin gpio.PinIO
}

// NewHostInput resolves a GPIO pin by name and configures it as an input
// with the requested bias.
func NewHostInput(name string, pull Pull) (in *HostInput, err error) {
	if err = HostInit(); err != nil {
		return
	}

	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("no GPIO pin named %q", name)
	}
	if err = pin.In(periphPull(pull), gpio.NoEdge); err != nil {
		return
	}

	in = &HostInput{pin: pin}
	return
}

func (i *HostInput) Read() bool {
	return i.pin.Read() == gpio.High
}

func periphPull(pull Pull) gpio.Pull {
	switch pull {
	case PullUp:
		return gpio.PullUp
	case PullDown:
		return gpio.PullDown
	default:
		return gpio.Float
	}
}
