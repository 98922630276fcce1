package comms

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roverlabs/gorover/onboard"
	"github.com/roverlabs/gorover/onboard/hardware"
)

// FRAMERATE is how many state frames per second go out to telemetry
// clients.
const FRAMERATE = 20

type Cmd struct {
	Cmd   string
	Name  string
	Value float64
}

type ConductorInterface interface {
	ProcessCommand(cmd Cmd)
}

// TraceSink receives one record per completed measurement. Frames keep
// flowing if the sink is slow, so implementations should return fast.
type TraceSink interface {
	RecordMeasurement(m hardware.Measurement)
}

// TelemetryClient is one websocket consumer: commands in, state frames
// out. A consumer that cannot keep up loses frames, never commands.
type TelemetryClient struct {
	conn      *websocket.Conn
	conductor ConductorInterface
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// Conductor owns the rover on behalf of every remote client.
type Conductor struct {
	Device onboard.Rover
	Pilot  *onboard.Pilot
	Traces TraceSink

	lock     sync.Mutex
	clients  []*TelemetryClient
	lastScan []onboard.ScanPoint
}

func NewConductor(device onboard.Rover, pilot *onboard.Pilot) *Conductor {
	return &Conductor{
		Device: device,
		Pilot:  pilot,
	}
}

func (c *Conductor) ProcessCommand(cmd Cmd) {
	switch cmd.Cmd {
	case "drive":
		direction, err := hardware.ParseChassisDirection(cmd.Name)
		if err != nil {
			fmt.Printf("Unable to process command %v\n", cmd)
			return
		}
		c.Device.Drive(direction)

	case "halt":
		c.Device.Halt()

	case "pan":
		if cmd.Value < 0 || cmd.Value > hardware.SERVO_MAX_ANGLE {
			fmt.Printf("Unable to process command %v\n", cmd)
			return
		}
		c.Device.Pan(uint8(cmd.Value))

	case "range":
		c.record(c.Device.Range())

	case "scan":
		points, err := c.Device.Scan()
		if err != nil {
			fmt.Printf("Unable to process command %v\n", cmd)
			return
		}
		for _, p := range points {
			c.record(p.Result)
		}
		c.lock.Lock()
		c.lastScan = points
		c.lock.Unlock()

	case "track":
		c.Device.Track()

	case "reset_uptime":
		c.Device.ResetUptime()

	case "pilot_roam":
		if c.Pilot != nil {
			c.Pilot.Roam()
		}

	case "pilot_follow":
		if c.Pilot != nil {
			c.Pilot.FollowLine()
		}

	case "pilot_stop":
		if c.Pilot != nil {
			c.Pilot.Stop()
		}

	default:
		fmt.Printf("Unable to process command %v\n", cmd)
	}
}

func (c *Conductor) record(m hardware.Measurement) {
	if c.Traces != nil {
		c.Traces.RecordMeasurement(m)
	}
}

// BuildState assembles the next telemetry frame.
func (c *Conductor) BuildState() StatePayload {
	c.lock.Lock()
	scan := c.lastScan
	c.lock.Unlock()

	payload := StatePayload{
		RoverState: c.Device.State(),
	}
	if c.Pilot != nil {
		payload.Pilot = c.Pilot.Running()
	}
	if len(scan) > 0 {
		payload.Scan = make([]ScanStop, len(scan))
		for i, p := range scan {
			payload.Scan[i] = NewScanStop(p)
		}
		payload.Field = SummarizeField(scan)
	}
	return payload
}

// UpdateClients pushes state frames to every connected client forever.
func (c *Conductor) UpdateClients() {
	for {
		msg, err := json.Marshal(c.BuildState())
		if err != nil {
			panic(err)
		}

		for _, client := range c.snapshot() {
			client.Push(msg)
		}

		time.Sleep(time.Second / FRAMERATE)
	}
}

func (c *Conductor) AddClient(conn *websocket.Conn) *TelemetryClient {
	client := &TelemetryClient{
		conn:      conn,
		conductor: c,
		send:      make(chan []byte, FRAMERATE),
		done:      make(chan struct{}),
	}

	c.lock.Lock()
	c.clients = append(c.clients, client)
	c.lock.Unlock()

	go client.writePump()
	go client.readPump(func() { c.removeClient(client) })
	return client
}

func (c *Conductor) removeClient(client *TelemetryClient) {
	c.lock.Lock()
	defer c.lock.Unlock()

	for i, known := range c.clients {
		if known == client {
			c.clients = append(c.clients[:i], c.clients[i+1:]...)
			break
		}
	}
}

func (c *Conductor) snapshot() []*TelemetryClient {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]*TelemetryClient(nil), c.clients...)
}

// Push queues a frame without ever blocking the conductor.
func (client *TelemetryClient) Push(msg []byte) {
	select {
	case client.send <- msg:
	case <-client.done:
	default:
	}
}

func (client *TelemetryClient) writePump() {
	for {
		select {
		case msg := <-client.send:
			if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-client.done:
			return
		}
	}
}

func (client *TelemetryClient) readPump(gone func()) {
	defer gone()
	defer client.Close()

	for {
		_, msg, err := client.conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd Cmd
		if err = json.Unmarshal(msg, &cmd); err != nil {
			client.Push([]byte("Error: invalid json"))
			continue
		}
		client.conductor.ProcessCommand(cmd)
	}
}

func (client *TelemetryClient) Close() {
	client.closeOnce.Do(func() {
		close(client.done)
		client.conn.Close()
	})
}
