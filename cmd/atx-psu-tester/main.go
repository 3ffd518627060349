// Command atx-psu-tester measures the rails of an ATX supply, shows them on a
// 16x2 display and switches a dummy load that is only allowed while the
// supply is on.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/atx-psu-tester/internal/adc"
	"github.com/sweeney/atx-psu-tester/internal/config"
	"github.com/sweeney/atx-psu-tester/internal/display"
	"github.com/sweeney/atx-psu-tester/internal/gpio"
	"github.com/sweeney/atx-psu-tester/internal/logic"
	"github.com/sweeney/atx-psu-tester/internal/status"
)

func main() {
	def := config.Default()

	configPath := flag.String("config", "/etc/atx-psu-tester/config.yaml", "YAML configuration file")
	envPath := flag.String("env", "/etc/atx-psu-tester/tester.env", "Env file with hardware overrides")
	cycle := flag.Duration("cycle", def.Cycle, "Control cycle period")
	heartbeat := flag.Duration("heartbeat", def.Heartbeat, "Heartbeat interval (0 to disable)")
	displayKind := flag.String("display", def.Display.Kind, `Display: "hd44780", "terminal" or "none"`)
	printState := flag.Bool("print-state", false, "Measure once, print the rails and exit")
	jsonOut := flag.Bool("json", false, "With --print-state, print JSON")

	flag.Parse()

	cfg, err := loadConfig(*configPath, *envPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	// Flags given on the command line win over the files.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "cycle":
			cfg.Cycle = *cycle
		case "heartbeat":
			cfg.Heartbeat = *heartbeat
		case "display":
			cfg.Display.Kind = *displayKind
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("fatal: invalid config: %v", err)
	}

	if err := run(cfg, *printState, *jsonOut); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func loadConfig(configPath, envPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(envPath); err != nil {
		return nil, err
	}
	return cfg, nil
}

// hardware bundles the collaborators the control loop drives.
type hardware struct {
	conditioner *logic.Conditioner
	rails       [logic.RailCount]logic.RailConfig
	buttons     gpio.ButtonReader
	switches    gpio.SwitchBank
	display     display.Display
}

func run(cfg *config.Config, printState, jsonOut bool) error {
	source, err := adc.Open(cfg.ADCOptions())
	if err != nil {
		return fmt.Errorf("init adc: %w", err)
	}
	defer source.Close()

	conditioner := logic.NewConditioner(source, cfg.ADCModel(), cfg.Samples)

	// Print state mode never opens the switch lines.
	if printState {
		return printOnce(os.Stdout, conditioner, cfg, jsonOut)
	}

	// Switch lines are requested driven low before anything else.
	switches, err := gpio.NewRealSwitches(cfg.GPIO.Chip, cfg.SwitchPins())
	if err != nil {
		return fmt.Errorf("init load switches: %w", err)
	}
	defer switches.Close()

	buttons, err := gpio.NewRealButtons(cfg.GPIO.Chip, cfg.ButtonPins())
	if err != nil {
		return fmt.Errorf("init buttons: %w", err)
	}
	defer buttons.Close()

	disp, err := openDisplay(cfg)
	if err != nil {
		return fmt.Errorf("init display: %w", err)
	}
	defer disp.Close()

	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	log.Printf("startup: %s", status.FormatStatusEvent(tracker.Snapshot(), "STARTUP", ""))
	log.Printf("started: cycle=%v samples=%d adc=%s display=%s heartbeat=%v diagnostics=%v",
		cfg.Cycle, cfg.Samples, cfg.ADC.Source, cfg.Display.Kind, cfg.Heartbeat, cfg.Diagnostics)

	ticker := time.NewTicker(cfg.Cycle)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	hw := hardware{
		conditioner: conditioner,
		rails:       cfg.RailConfigs(),
		buttons:     buttons,
		switches:    switches,
		display:     disp,
	}
	return runLoop(hw, cfg.EngineConfig(), tracker, cfg.Heartbeat, time.Now, ticker.C, sigCh)
}

func openDisplay(cfg *config.Config) (display.Display, error) {
	switch cfg.Display.Kind {
	case config.DisplayHD44780:
		lcd, err := display.OpenHD44780(cfg.GPIO.Chip, cfg.Display.LCD)
		if err != nil {
			return nil, err
		}
		return lcd, nil
	case config.DisplayTerminal:
		return display.NewTerminal(os.Stdout), nil
	}
	return display.NewTerminal(io.Discard), nil
}

func statusConfig(cfg *config.Config) status.Config {
	return status.Config{
		CycleMs:     cfg.Cycle.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Samples:     cfg.Samples,
		ADCSource:   cfg.ADC.Source,
		Display:     cfg.Display.Kind,
		Diagnostics: cfg.Diagnostics,
		Bands:       cfg.EngineConfig().Bands,
	}
}

func runLoop(hw hardware, cfg logic.Config, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	interlock := logic.NewInterlock(hw.switches)
	engine := logic.NewEngine(cfg, interlock, startTime)

	// The load starts off whatever the gates were left at.
	if err := interlock.Set(false); err != nil {
		return fmt.Errorf("force load off: %w", err)
	}
	if err := display.Show(hw.display, logic.SplashScreen); err != nil {
		log.Printf("display error: %v", err)
	}

	var shown logic.Screen
	drawn := false

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			if err := interlock.Set(false); err != nil {
				log.Printf("failed to switch load off: %v", err)
			}
			if err := display.Show(hw.display, logic.StoppedScreen); err != nil {
				log.Printf("display error: %v", err)
			}
			if tracker != nil {
				st := engine.State()
				st.Load = interlock.On()
				tracker.Update(st, engine.EventCountsSnapshot())
				log.Printf("shutdown: %s", status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName(s)))
			}
			return nil

		case <-tick:
			t := now()

			buttons, err := hw.buttons.Read()
			if err != nil {
				// An unreadable button counts as released.
				log.Printf("button read error: %v", err)
				buttons = logic.Buttons{}
			}

			var out logic.Output
			readings, err := hw.conditioner.MeasureAll(hw.rails)
			if err != nil {
				log.Printf("adc read error: %v", err)
				out, err = engine.StepFault(buttons, t, err)
			} else {
				out, err = engine.Step(logic.Input{Readings: readings, Buttons: buttons, Time: t})
			}
			if err != nil {
				log.Printf("load switch error: %v", err)
			}

			for _, event := range out.Events {
				logEvent(event)
			}

			if !drawn || out.Screen != shown {
				// A failed frame is drawn again on the next cycle.
				if err := display.Show(hw.display, out.Screen); err != nil {
					log.Printf("display error: %v", err)
				} else {
					shown = out.Screen
					drawn = true
				}
			}

			if tracker != nil {
				tracker.Update(engine.State(), engine.EventCountsSnapshot())
			}

			if hbData := engine.CheckHeartbeat(t, heartbeat); hbData != nil {
				c := hbData.Counts
				log.Printf("heartbeat: uptime=%v psu_on=%d load_on=%d forced_off=%d spec_pass=%d spec_fail=%d sensor_fault=%d",
					hbData.Uptime, c.PSUOn, c.LoadOn, c.LoadForcedOff, c.SpecPass, c.SpecFail, c.SensorFault)
				if tracker != nil {
					log.Printf("heartbeat: %s", status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", ""))
				}
			}
		}
	}
}

func logEvent(e logic.Event) {
	if e.Detail == "" {
		log.Printf("event: %s", e.Type)
		return
	}
	log.Printf("event: %s (%s)", e.Type, e.Detail)
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// measureOnce reads the rails and derives presence and classification
// without an engine, so the load is never touched.
func measureOnce(conditioner *logic.Conditioner, rails [logic.RailCount]logic.RailConfig, cfg logic.Config) (logic.State, error) {
	readings, err := conditioner.MeasureAll(rails)
	if err != nil {
		return logic.State{}, err
	}

	var v [logic.RailCount]float64
	for _, r := range logic.Rails {
		v[r] = readings[r].Calibrated
	}
	return logic.State{
		PSU:            logic.IsPresent(readings[logic.Rail12V].RailVoltage, cfg.PresenceThreshold),
		Readings:       readings,
		Classification: logic.Classify(v, cfg.Bands),
		Measured:       true,
	}, nil
}

func printOnce(w io.Writer, conditioner *logic.Conditioner, cfg *config.Config, jsonOut bool) error {
	st, err := measureOnce(conditioner, cfg.RailConfigs(), cfg.EngineConfig())
	if err != nil {
		return fmt.Errorf("read rails: %w", err)
	}

	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	tracker.Update(st, logic.EventCounts{})
	snap := tracker.Snapshot()

	if jsonOut {
		_, err = fmt.Fprintf(w, "%s\n", status.FormatJSON(snap))
	} else {
		_, err = io.WriteString(w, status.FormatText(snap))
	}
	return err
}
