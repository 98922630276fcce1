package main

import (
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/codec/msgpack"
	"github.com/caarlos0/env/v6"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	"github.com/roverlabs/gorover/comms"
	. "github.com/roverlabs/gorover/onboard"
	"github.com/roverlabs/gorover/onboard/hardware"
)

type EnvConfig struct {
	JWT_ISSUER string `env:"ROVER_DEVICE_UUID" envDefault:"DEV"`
	ONBOARD    bool   `env:"ONBOARD" envDefault:"0"`
	DEBUG      bool   `env:"DEBUG" envDefault:"0"`
	SRCDIR     string `env:"SRCDIR" envDefault:"."`
	HTMLDIR    string `env:"HTMLDIR" envDefault:"./frontend/dist/"`
	DB         *storm.DB
	Traces     *TraceStore
	Conductor  *comms.Conductor
	Simulated  bool
}

var (
	ENV *EnvConfig
)

func init() {
	// Load main config
	ENV = new(EnvConfig)
	env.Parse(ENV)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC822})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if ENV.DEBUG {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// setup database
	// get db path, this depends on if we are running on the robot itself
	var dbFile string
	if ENV.ONBOARD {
		dbFile = "/data/live.db"
	} else {
		dbFile, _ = filepath.Abs("./tmp/dev.db")
		dir := filepath.Dir(dbFile)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			os.Mkdir(dir, 0755)
		}
	}

	db, err := openDb(dbFile)
	if err != nil {
		panic(err)
	}
	ENV.DB = db
	ENV.Traces = NewTraceStore(db)

	return
}

func main() {
	// process flags
	simulated := flag.Bool("sim", false, "Run against the simulated rover")
	port := flag.String("port", "0.0.0.0:80", "Specify the ip:port to listen on")
	consoleDev := flag.String("console", "", "Serial device for the wired console (e.g. /dev/ttyAMA0)")
	flag.Parse()

	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Recoverer) // make sure this is last

	defer ENV.DB.Close() // close database when finished

	// Load the device config before touching any hardware
	var filename string
	var err error
	if ENV.ONBOARD {
		log.Info().Msg("running onboard the rover")
		filename = "/data/rover_config.yaml"
	} else {
		filename, err = filepath.Abs(ENV.SRCDIR + "/rover_config.yaml")
		if err != nil {
			panic(err)
		}
	}
	yamlFile, err := ioutil.ReadFile(filename)

	if err != nil {
		panic(fmt.Sprintf("Unable to read yaml file: %v", err))
	}

	var config RoverConfig
	err = yaml.Unmarshal(yamlFile, &config)
	if err != nil {
		panic(fmt.Sprintf("Unable to unmarshal yaml: %v", err))
	}

	ENV.Simulated = *simulated

	var device Rover
	if ENV.Simulated {
		log.Info().Msg("creating simulated rover")
		device, err = NewSimulatedRover(&config)
	} else {
		device, err = NewGPIORover(&config)
	}
	if err != nil {
		panic(fmt.Sprintf("Unable to initialize rover: %v", err))
	}
	defer device.Close()

	pilot := NewPilot(device, config.PilotPolicy())

	ENV.Conductor = comms.NewConductor(device, pilot)
	ENV.Conductor.Traces = ENV.Traces

	go ENV.Conductor.UpdateClients()

	// Bring up the wired console when asked for one
	if *consoleDev != "" {
		console, err := comms.NewSerialConsole(*consoleDev, device, ENV.Conductor)
		if err != nil {
			log.Error().Err(err).Str("device", *consoleDev).Msg("serial console unavailable")
		} else {
			go func() {
				if err := console.Run(); err != nil {
					log.Error().Err(err).Msg("serial console died")
				}
			}()
		}
	}

	//---
	// Create a local shell
	//---
	{
		directionNames := func([]string) []string {
			return []string{"forward", "backward", "left", "right"}
		}

		shell := ishell.New()
		shell.Println("Rover development shell")
		shell.ShowPrompt(true)
		shell.AddCmd(&ishell.Cmd{
			Name: "createsuperuser",
			Help: "createsuperuser <email> <password>",
			Func: func(c *ishell.Context) {
				// disable the '>>>' for cleaner same line input.
				c.ShowPrompt(false)
				defer c.ShowPrompt(true) // yes, revert when done.

				// get email
				var email string
				if len(c.Args) >= 1 {
					email = c.Args[0]
				} else {
					c.Print("Email: ")
					email = c.ReadLine()
				}

				// get password
				var password string
				if len(c.Args) >= 2 {
					password = c.Args[1]
				} else {
					c.Print("Password: ")
					password = c.ReadPassword()
				}

				// create user
				user := &User{
					Email: email,
					Name:  email,
					Admin: true,
				}
				user.SetPassword([]byte(password))
				err := ENV.DB.Save(user)
				if err != nil {
					panic(err)
				}

				c.Println("Superuser created")
			},
		})

		// Add device specific commands
		shell.AddCmd(&ishell.Cmd{
			Name:      "drive",
			Completer: directionNames,
			Help:      "drive <forward|backward|left|right>",
			Func: func(c *ishell.Context) {
				if len(c.Args) < 1 {
					c.Err(errors.New("Usage: drive <direction>"))
					return
				}
				direction, err := hardware.ParseChassisDirection(c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				if err = device.Drive(direction); err != nil {
					c.Err(err)
				}
			},
		})

		shell.AddCmd(&ishell.Cmd{
			Name: "halt",
			Help: "stop the chassis",
			Func: func(c *ishell.Context) {
				device.Halt()
			},
		})

		shell.AddCmd(&ishell.Cmd{
			Name: "pan",
			Help: "pan <0-180>",
			Func: func(c *ishell.Context) {
				if len(c.Args) < 1 {
					c.Err(errors.New("Usage: pan <angle>"))
					return
				}
				angle, err := strconv.Atoi(c.Args[0])
				if err != nil || angle < 0 || angle > hardware.SERVO_MAX_ANGLE {
					c.Err(errors.New("angle must be between 0 and 180"))
					return
				}
				if err := device.Pan(uint8(angle)); err != nil {
					c.Err(err)
				}
			},
		})

		shell.AddCmd(&ishell.Cmd{
			Name: "range",
			Help: "take a single distance measurement",
			Func: func(c *ishell.Context) {
				m := device.Range()
				ENV.Traces.RecordMeasurement(m)
				c.Println(m.String())
			},
		})

		shell.AddCmd(&ishell.Cmd{
			Name: "scan",
			Help: "sweep the head and measure at each stop",
			Func: func(c *ishell.Context) {
				points, err := device.Scan()
				if err != nil {
					c.Err(err)
					return
				}
				for _, p := range points {
					c.Printf("%3d: %s\n", p.Angle, p.Result)
				}
			},
		})

		shell.AddCmd(&ishell.Cmd{
			Name: "track",
			Help: "read the line sensors",
			Func: func(c *ishell.Context) {
				_, bias := device.Track()
				c.Println(bias.String())
			},
		})

		shell.AddCmd(&ishell.Cmd{
			Name: "uptime",
			Help: "milliseconds since the clock was last reset",
			Func: func(c *ishell.Context) {
				c.Printf("%dms\n", device.Uptime())
			},
		})

		shell.AddCmd(&ishell.Cmd{
			Name: "reset",
			Help: "reset the uptime clock",
			Func: func(c *ishell.Context) {
				device.ResetUptime()
			},
		})

		shell.AddCmd(&ishell.Cmd{
			Name: "roam",
			Help: "engage the roaming pilot",
			Func: func(c *ishell.Context) {
				if err := pilot.Roam(); err != nil {
					c.Err(err)
				}
			},
		})

		shell.AddCmd(&ishell.Cmd{
			Name: "follow",
			Help: "engage the line-following pilot",
			Func: func(c *ishell.Context) {
				if err := pilot.FollowLine(); err != nil {
					c.Err(err)
				}
			},
		})

		shell.AddCmd(&ishell.Cmd{
			Name: "stop",
			Help: "disengage the pilot",
			Func: func(c *ishell.Context) {
				pilot.Stop()
			},
		})

		shell.AddCmd(&ishell.Cmd{
			Name: "traces",
			Help: "traces [n]",
			Func: func(c *ishell.Context) {
				n := 10
				if len(c.Args) >= 1 {
					if n, err = strconv.Atoi(c.Args[0]); err != nil {
						c.Err(err)
						return
					}
				}
				records, err := ENV.Traces.Recent(n)
				if err != nil {
					c.Err(err)
					return
				}
				for _, record := range records {
					c.Printf("%s %-8s %5d ticks %6dmm\n",
						record.When.Format(time.RFC3339), record.Status, record.Ticks, record.MM)
				}
			},
		})

		// Start an instance of the shell so it can be controlled from the CLI
		go shell.Start()
	}

	//---
	// Build the API routes
	//---
	r.Route("/api", func(r chi.Router) {
		// login
		r.Post("/login", Login)

		r.Route("/", func(r chi.Router) {
			// Seek, verify and validate JWT tokens
			r.Use(ValidateJWT)

			r.Get("/status", StatusHandler)
			r.Get("/traces", TracesHandler)

			r.Get("/refresh_token", JWTRefresh)
		})

	})

	// Add websocket routes
	r.Route("/ws", func(r chi.Router) {
		if ENV.ONBOARD && !ENV.DEBUG {
			// Enable JWT validation in production
			r.Use(ValidateJWT)
		} else {
			log.Warn().Msg("running in debug mode, websocket authentication disabled")
		}

		r.Get("/echo", EchoHandler)
		r.Get("/telemetry", TelemetryHandler)
	})

	// add static base routes
	FileServer(r, "/", http.Dir(ENV.HTMLDIR))

	log.Info().Str("addr", *port).Msg("conductor listening")
	if err := http.ListenAndServe(*port, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func openDb(dbFile string) (db *storm.DB, err error) {
	db, err = storm.Open(dbFile, storm.Codec(msgpack.Codec))
	if err != nil {
		return
	}

	// call inits for each type
	if err := db.Init(&User{}); err != nil {
		return nil, err
	}
	if err := db.Init(&TraceRecord{}); err != nil {
		return nil, err
	}

	return
}

// FileServer conveniently sets up a http.FileServer handler to serve
// static files from a http.FileSystem.
func FileServer(r chi.Router, path string, root http.FileSystem) {
	if strings.ContainsAny(path, "{}*") {
		panic("FileServer does not permit URL parameters.")
	}

	fs := http.StripPrefix(path, http.FileServer(root))

	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", 301).ServeHTTP)
		path += "/"
	}
	path += "*"

	r.Get(path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.ServeHTTP(w, r)
	}))
}
