package comms

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goburrow/serial"

	"github.com/roverlabs/gorover/onboard"
)

const CONSOLE_BAUD = 57600

// SerialConsole is the wired fallback for when the network is down:
// line commands in over UART, human-readable answers out. It speaks the
// same command set as the websocket clients, minus the json framing.
type SerialConsole struct {
	port      serial.Port
	lock      sync.Mutex
	conductor ConductorInterface
	device    onboard.Rover
}

func NewSerialConsole(address string, device onboard.Rover, conductor ConductorInterface) (console *SerialConsole, err error) {
	port, err := serial.Open(&serial.Config{
		Address:  address,
		BaudRate: CONSOLE_BAUD,
		Timeout:  time.Second,
	})
	if err != nil {
		return
	}

	console = &SerialConsole{
		port:      port,
		conductor: conductor,
		device:    device,
	}
	return
}

// Run reads the port until it fails. Timeouts just mean nobody is
// typing.
func (console *SerialConsole) Run() error {
	console.write("rover console ready, try help")

	buf := make([]byte, 64)
	var line []byte

	for {
		n, err := console.port.Read(buf)
		for _, b := range buf[:n] {
			if b == '\n' || b == '\r' {
				if cmd := strings.TrimSpace(string(line)); cmd != "" {
					console.handle(cmd)
				}
				line = line[:0]
				continue
			}
			line = append(line, b)
		}

		switch err {
		case nil, serial.ErrTimeout:
		default:
			return err
		}
	}
}

func (console *SerialConsole) handle(line string) {
	fields := strings.Fields(line)

	cmd := Cmd{Cmd: fields[0]}
	if len(fields) > 1 {
		if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
			cmd.Value = v
		} else {
			cmd.Name = fields[1]
		}
	}

	switch cmd.Cmd {
	case "range":
		console.write(console.device.Range().String())

	case "track":
		_, bias := console.device.Track()
		console.write(bias.String())

	case "scan":
		points, err := console.device.Scan()
		if err != nil {
			console.write("error: " + err.Error())
			return
		}
		for _, p := range points {
			console.write(fmt.Sprintf("%3d: %s", p.Angle, p.Result))
		}

	case "state":
		state := console.device.State()
		console.write(fmt.Sprintf("dir=%s moving=%t pan=%d range=%s line=%s uptime=%dms",
			state.Direction, state.Moving, state.PanAngle, state.Range, state.Line, state.UptimeMS))

	case "uptime":
		console.write(fmt.Sprintf("%dms", console.device.Uptime()))

	case "help":
		console.write("drive <forward|backward|left|right> | halt | pan <0-180> | range | scan | track | state | uptime | reset_uptime | pilot_roam | pilot_follow | pilot_stop")

	default:
		console.conductor.ProcessCommand(cmd)
		console.write("ok")
	}
}

// write sends one line. Build the bytes outside the critical section.
func (console *SerialConsole) write(s string) {
	msg := []byte(s + "\r\n")

	console.lock.Lock()
	console.port.Write(msg)
	console.lock.Unlock()
}

func (console *SerialConsole) Close() error {
	return console.port.Close()
}
