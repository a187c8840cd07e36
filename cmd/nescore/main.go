// Command nescore runs the emulator core against a ROM file, presenting
// frames through a selectable graphics backend.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"

	"nescore/internal/bus"
	"nescore/internal/cartridge"
	"nescore/internal/config"
	"nescore/internal/graphics"
	"nescore/internal/input"
	"nescore/internal/version"
)

func main() {
	var (
		romPath    = flag.String("rom", "", "Path to NES ROM file")
		configPath = flag.String("config", "", "Path to configuration file")
		backend    = flag.String("backend", "", "Graphics backend override: ebitengine, headless, terminal")
		headless   = flag.Bool("headless", false, "Run without a window, dumping diagnostic frames to disk")
		showVer    = flag.Bool("version", false, "Print version information and exit")
	)
	flag.Parse()
	defer glog.Flush()

	if *showVer {
		fmt.Println(version.GetDetailedVersion())
		return
	}

	if *romPath == "" {
		fmt.Fprintln(os.Stderr, "nescore: -rom is required")
		flag.Usage()
		os.Exit(2)
	}

	path := *configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		glog.Exitf("nescore: loading config: %v", err)
	}

	if *backend != "" {
		cfg.Video.Backend = *backend
	}
	if *headless {
		cfg.Video.Backend = "headless"
	}

	if err := run(*romPath, cfg); err != nil {
		glog.Exitf("nescore: %v", err)
	}
}

func run(romPath string, cfg *config.Config) error {
	cart, err := cartridge.LoadFromFile(romPath)
	if err != nil {
		return fmt.Errorf("loading cartridge: %w", err)
	}
	glog.Infof("nescore: loaded %s (mirroring %v)", romPath, cart.MirrorMode())

	driver := bus.New()
	driver.LoadCartridge(cart)

	backendType := graphics.BackendType(cfg.Video.Backend)
	gfx, err := graphics.CreateBackend(backendType)
	if err != nil {
		return fmt.Errorf("creating graphics backend %q: %w", cfg.Video.Backend, err)
	}

	gfxConfig := graphics.Config{
		WindowTitle:  "nescore - " + romPath,
		WindowWidth:  256 * cfg.Video.Scale,
		WindowHeight: 240 * cfg.Video.Scale,
		VSync:        true,
		Filter:       "nearest",
		AspectRatio:  "4:3",
		Headless:     gfx.IsHeadless(),
		Debug:        cfg.Debug.EnableLogging,
	}
	if err := gfx.Initialize(gfxConfig); err != nil {
		return fmt.Errorf("initializing %s backend: %w", gfx.GetName(), err)
	}
	defer gfx.Cleanup()

	win, err := gfx.CreateWindow(gfxConfig.WindowTitle, gfxConfig.WindowWidth, gfxConfig.WindowHeight)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	defer win.Cleanup()

	processor := graphics.NewVideoProcessor(cfg.Video.Brightness, cfg.Video.Contrast, cfg.Video.Saturation)

	update := func() error {
		for _, ev := range win.PollEvents() {
			if ev.Type == graphics.InputEventTypeQuit {
				win.Cleanup()
				continue
			}
			if ev.Type == graphics.InputEventTypeButton {
				applyButtonEvent(driver, ev)
			}
		}

		driver.Frame()

		processed := processor.ProcessFrame(driver.GetFrameBuffer())
		var frame [256 * 240]uint32
		copy(frame[:], processed)
		return win.RenderFrame(frame)
	}

	if ebWindow, ok := graphics.AsEbitengineWindow(win); ok {
		ebWindow.SetEmulatorUpdateFunc(update)
		return ebWindow.Run()
	}

	for !win.ShouldClose() {
		if err := update(); err != nil {
			return err
		}
	}
	return nil
}

// applyButtonEvent routes a polled button event to the matching controller
// port without disturbing that controller's other held buttons.
func applyButtonEvent(driver *bus.Driver, ev graphics.InputEvent) {
	switch ev.Button {
	case graphics.ButtonA:
		driver.SetControllerButton(1, input.ButtonA, ev.Pressed)
	case graphics.ButtonB:
		driver.SetControllerButton(1, input.ButtonB, ev.Pressed)
	case graphics.ButtonSelect:
		driver.SetControllerButton(1, input.ButtonSelect, ev.Pressed)
	case graphics.ButtonStart:
		driver.SetControllerButton(1, input.ButtonStart, ev.Pressed)
	case graphics.ButtonUp:
		driver.SetControllerButton(1, input.ButtonUp, ev.Pressed)
	case graphics.ButtonDown:
		driver.SetControllerButton(1, input.ButtonDown, ev.Pressed)
	case graphics.ButtonLeft:
		driver.SetControllerButton(1, input.ButtonLeft, ev.Pressed)
	case graphics.ButtonRight:
		driver.SetControllerButton(1, input.ButtonRight, ev.Pressed)
	case graphics.Button2A:
		driver.SetControllerButton(2, input.ButtonA, ev.Pressed)
	case graphics.Button2B:
		driver.SetControllerButton(2, input.ButtonB, ev.Pressed)
	case graphics.Button2Select:
		driver.SetControllerButton(2, input.ButtonSelect, ev.Pressed)
	case graphics.Button2Start:
		driver.SetControllerButton(2, input.ButtonStart, ev.Pressed)
	case graphics.Button2Up:
		driver.SetControllerButton(2, input.ButtonUp, ev.Pressed)
	case graphics.Button2Down:
		driver.SetControllerButton(2, input.ButtonDown, ev.Pressed)
	case graphics.Button2Left:
		driver.SetControllerButton(2, input.ButtonLeft, ev.Pressed)
	case graphics.Button2Right:
		driver.SetControllerButton(2, input.ButtonRight, ev.Pressed)
	}
}
