package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/vagrant_story_browser/config"
	"github.com/mogaika/vagrant_story_browser/exporter"
	"github.com/mogaika/vagrant_story_browser/pack"
	"github.com/mogaika/vagrant_story_browser/pack/zud"
	"github.com/mogaika/vagrant_story_browser/utils"
	"github.com/mogaika/vagrant_story_browser/web"
)

func main() {
	cmd := &cli.Command{
		Name:  "vagrant_story_browser",
		Usage: "browse and export Vagrant Story animations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "yaml config file", Value: "browser.yaml"},
			&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Usage: "path to the unpacked game files"},
			&cli.BoolFlag{Name: "trace", Usage: "print decoder trace to stderr"},
			&cli.IntFlag{Name: "workers", Usage: "decode goroutines"},
		},
		Commands: []*cli.Command{
			serveCommand(),
			dumpCommand(),
			exportCommand(),
			configCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// setup loads the config, applies flags that were given and opens the data
// directory.
func setup(c *cli.Command) (*pack.Directory, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("dir") {
		cfg.Data.Dir = c.String("dir")
	}
	if c.IsSet("trace") {
		cfg.Decode.Trace = c.Bool("trace")
	}
	if c.IsSet("workers") {
		cfg.Decode.Workers = c.Int("workers")
	}
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}
	if c.IsSet("webpath") {
		cfg.Server.WebPath = c.String("webpath")
	}
	if c.IsSet("out") {
		cfg.Export.Dir = c.String("out")
	}
	if c.IsSet("framerate") {
		cfg.Export.Framerate = c.Float32("framerate")
	}
	if c.IsSet("interpolation") {
		cfg.Export.Interpolation = c.String("interpolation")
	}
	if c.IsSet("translation") {
		cfg.Export.Translation = c.Bool("translation")
	}
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	config.Set(cfg)

	var trace *utils.Logger
	if cfg.Decode.Trace {
		trace = utils.NewLogger(os.Stderr)
	}
	return pack.NewDirectory(cfg.Data.Dir, trace)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "start the browse server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Aliases: []string{"i"}, Usage: "address of server"},
			&cli.StringFlag{Name: "webpath", Usage: "directory with the web ui"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			d, err := setup(c)
			if err != nil {
				return err
			}
			cfg := config.Get()
			return web.StartServer(cfg.Server.Addr, d, cfg.Server.WebPath)
		},
	}
}

func dumpCommand() *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "print a decoded file, or clips of it",
		ArgsUsage: "<file> [clip|bank.clip]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "json, yaml or spew", Value: "json"},
			&cli.BoolFlag{Name: "tree", Usage: "print the section layout of a zud instead"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.NArg() < 1 {
				return cli.Exit("dump: file name required", 1)
			}
			d, err := setup(c)
			if err != nil {
				return err
			}
			if c.Bool("tree") {
				return dumpTree(d, c.Args().Get(0))
			}
			v, err := dumpValue(d, c.Args().Get(0), c.Args().Get(1))
			if err != nil {
				return err
			}
			return encode(os.Stdout, v, c.String("format"))
		},
	}
}

func dumpValue(d *pack.Directory, file, param string) (interface{}, error) {
	if param == "" {
		return pack.GetInstanceHandler(d, file)
	}
	bankName, clip := exporter.SplitParam(param)
	bank, err := exporter.LoadBank(d, file, bankName)
	if err != nil {
		return nil, err
	}
	clips, err := exporter.Clips(bank.SEQ, clip)
	if err != nil {
		return nil, err
	}
	reports := make([]*web.ClipReport, 0, len(clips))
	for _, i := range clips {
		c, err := bank.SEQ.DecodeClip(i)
		if err != nil {
			return nil, err
		}
		reports = append(reports, web.NewClipReport(c))
	}
	return reports, nil
}

func dumpTree(d *pack.Directory, file string) error {
	inst, err := pack.GetInstanceHandler(d, file)
	if err != nil {
		return err
	}
	z, ok := inst.(*zud.ZUD)
	if !ok {
		return cli.Exit(fmt.Sprintf("%s is not a zud", file), 1)
	}
	_, err = io.WriteString(os.Stdout, z.Layout())
	return err
}

func encode(w io.Writer, v interface{}, format string) error {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		e := yaml.NewEncoder(w)
		e.SetIndent(2)
		if err := e.Encode(v); err != nil {
			return err
		}
		return e.Close()
	case "spew":
		_, err := io.WriteString(w, utils.SDump(v))
		return err
	}
	return cli.Exit(fmt.Sprintf("unknown format %q", format), 1)
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "write glb files, for one file or the whole directory",
		ArgsUsage: "[file [clip|bank.clip]]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output directory"},
			&cli.Float32Flag{Name: "framerate", Usage: "frames per second"},
			&cli.StringFlag{Name: "interpolation", Usage: "LINEAR or STEP"},
			&cli.BoolFlag{Name: "translation", Usage: "export the root translation channel"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			d, err := setup(c)
			if err != nil {
				return err
			}
			cfg := config.Get()
			o := exporter.Options{
				Dir:     cfg.Export.Dir,
				Workers: cfg.Decode.Workers,
				GLTF:    exporter.GLTFOptions(cfg),
			}
			if c.NArg() == 0 {
				return exportAll(d, o)
			}
			return exportFile(d, o, c.Args().Get(0), c.Args().Get(1))
		},
	}
}

func exportAll(d *pack.Directory, o exporter.Options) error {
	results, err := exporter.ExportAll(d, o, func(done, total int, r exporter.Result) {
		switch {
		case r.Err != nil:
			log.Printf("[export] %d/%d %s: %v", done, total, r.Source, r.Err)
		case r.Path != "":
			log.Printf("[export] %d/%d %s -> %s (%d problems)", done, total, r.Source, r.Path, len(r.Problems))
		}
	})
	if err != nil {
		return err
	}
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	log.Printf("[export] %d banks, %d failed", len(results), failed)
	return nil
}

func exportFile(d *pack.Directory, o exporter.Options, file, param string) error {
	bankName, clip := exporter.SplitParam(param)
	bank, err := exporter.LoadBank(d, file, bankName)
	if err != nil {
		return err
	}
	clips, err := exporter.Clips(bank.SEQ, clip)
	if err != nil {
		return err
	}
	glb, problems, err := bank.GLB(clips, o.GLTF)
	if err != nil {
		return err
	}
	for _, p := range problems {
		log.Printf("[export] %s: %v", bank.SEQ.Name, p)
	}

	name := bank.SEQ.Name
	if len(clips) == 1 {
		name = bank.SEQ.ClipName(clips[0])
	}
	if err := os.MkdirAll(o.Dir, 0777); err != nil {
		return err
	}
	out := filepath.Join(o.Dir, name+".glb")
	if err := os.WriteFile(out, glb, 0666); err != nil {
		return err
	}
	log.Printf("[export] %s -> %s", file, out)
	return nil
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "print the effective config",
		Action: func(ctx context.Context, c *cli.Command) error {
			if _, err := setup(c); err != nil {
				return err
			}
			data, err := config.Get().Marshal()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}
