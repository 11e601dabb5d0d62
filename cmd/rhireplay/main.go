// Command rhireplay replays a YAML command stream against an rhi backend
// and prints the perf report and cache counters.
//
// Usage:
//
//	rhireplay [-config rhi.toml] [-driver gles|null] [-dump out.bmp] script.yaml
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/rhi"
	"github.com/gogpu/rhi/config"
	_ "github.com/gogpu/rhi/driver/drivertest"
)

func main() {
	var (
		cfgPath    = flag.String("config", "", "TOML configuration file")
		driverName = flag.String("driver", "", "driver name (default: config, then best available)")
		dumpPath   = flag.String("dump", "", "write the script's dump resource as BMP")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: rhireplay [flags] script.yaml")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			log.Fatalf("rhireplay: %v", err)
		}
	}
	level, err := cfg.Level()
	if err != nil {
		log.Fatalf("rhireplay: %v", err)
	}
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	rhi.SetLogger(logger)

	script, err := Load(flag.Arg(0))
	if err != nil {
		log.Fatalf("rhireplay: %v", err)
	}

	name := *driverName
	if name == "" {
		name = cfg.Driver
	}
	pw := int(float64(script.Window.Width) * script.Window.Scale)
	ph := int(float64(script.Window.Height) * script.Window.Scale)
	dev, name, err := openDevice(name, pw, ph)
	if err != nil {
		log.Fatalf("rhireplay: %v", err)
	}
	logger.Info("rhireplay: driver", "name", name, "caps", dev.Caps().String())

	win := gpucontext.NullWindowProvider{W: script.Window.Width, H: script.Window.Height, SF: script.Window.Scale}
	b, err := rhi.New(dev, rhi.WithConfig(cfg), rhi.WithWindow(win))
	if err != nil {
		log.Fatalf("rhireplay: %v", err)
	}
	defer b.Close()

	res, err := Replay(b, script)
	if err != nil {
		b.Close()
		log.Fatalf("rhireplay: %v", err)
	}
	if err := WriteReport(os.Stdout, res); err != nil {
		log.Printf("rhireplay: %v", err)
	}

	if *dumpPath != "" {
		if err := dumpFile(*dumpPath, b, rhi.Handle(script.Dump)); err != nil {
			b.Close()
			log.Fatalf("rhireplay: %v", err)
		}
		logger.Info("rhireplay: dumped", "path", *dumpPath)
	}
}

func dumpFile(path string, b *rhi.Backend, h rhi.Handle) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Dump(f, b, h); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
