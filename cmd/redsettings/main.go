// Command redsettings profiles the host and prints a sensitivity profile.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog"

	"github.com/MJE43/redsettings-go/internal/config"
	"github.com/MJE43/redsettings-go/internal/device"
	"github.com/MJE43/redsettings-go/internal/engine"
	"github.com/MJE43/redsettings-go/internal/games"
	"github.com/MJE43/redsettings-go/internal/graphics"
	"github.com/MJE43/redsettings-go/internal/jitter"
	"github.com/MJE43/redsettings-go/internal/logging"
	"github.com/MJE43/redsettings-go/internal/service"
	"github.com/MJE43/redsettings-go/internal/store"
	"github.com/MJE43/redsettings-go/internal/validate"
)

type output struct {
	Profile  *engine.Profile    `json:"profile"`
	Report   validate.Report    `json:"validation"`
	Graphics *graphics.Settings `json:"graphics,omitempty"`
	Share    string             `json:"share,omitempty"`
}

func main() {
	cfg, err := config.ParseCLI(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "redsettings: %v\n", err)
		os.Exit(2)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redsettings: %v\n", err)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, log, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "redsettings: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.CLI, log zerolog.Logger, out io.Writer) error {
	var persist jitter.Persistence = store.NewMemoryKV()
	if cfg.DBPath != "" {
		db, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		persist = db
	}
	cache := jitter.New(persist, logging.Component(log, "jitter"))
	defer cache.Close(context.WithoutCancel(ctx))

	rnd := engine.NewEntropy()
	if cfg.Seed != "" {
		rnd = engine.NewReproducible(cfg.Seed)
	}
	reg := games.Default()
	gen := engine.NewGenerator(reg, cache,
		engine.WithRand(rnd),
		engine.WithLogger(logging.Component(log, "engine")))

	prof := device.NewProfiler(device.HostProvider{}, device.WithLogger(logging.Component(log, "device"))).Profile()
	p, err := gen.Generate(ctx, prof, cfg.Game, cfg.Style, engine.Options{Gyro: engine.GyroMode(cfg.Gyro)})
	if err != nil {
		return err
	}
	schema, err := reg.Schema(p.Game)
	if err != nil {
		return err
	}

	res := output{Profile: p, Report: validate.Check(schema, p.Values)}
	if cfg.Graphics {
		g, err := graphics.Advise(prof, p.Game, graphics.Options{})
		if err != nil {
			return err
		}
		res.Graphics = &g
	}
	if cfg.Share {
		res.Share = service.ShareText(&store.SavedProfile{
			Game:         p.Game,
			Style:        p.Style,
			Values:       p.Values,
			RotationMode: p.RotationMode,
			Score:        res.Report.Score,
		}, schema)
	}

	if cfg.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printText(out, schema, res)
	return nil
}

func printText(w io.Writer, schema *games.Schema, res output) {
	p := res.Profile
	fmt.Fprintf(w, "%s (%s) on %s %dx%d, score %.2f\n",
		schema.Name, p.Style, p.Device.Class, p.Device.Screen.Width, p.Device.Screen.Height, p.Device.PerformanceScore)
	for _, f := range schema.Fields {
		if v, ok := p.Values[f.Name]; ok {
			fmt.Fprintf(w, "  %-24s %d\n", f.Label, v)
		}
	}
	fmt.Fprintf(w, "validation: %d/100", res.Report.Score)
	if !res.Report.IsValid {
		fmt.Fprintf(w, " (%d errors)", len(res.Report.Errors))
	}
	fmt.Fprintln(w)
	for _, rec := range res.Report.Recommendations {
		fmt.Fprintf(w, "  - %s\n", rec)
	}
	for _, tip := range p.Tips {
		fmt.Fprintf(w, "  * %s\n", tip)
	}
	if res.Graphics != nil {
		fmt.Fprintf(w, "graphics: %s\n", res.Graphics.Describe())
	}
	if res.Share != "" {
		fmt.Fprintf(w, "\n%s", res.Share)
	}
}
