package config

import (
	"os"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Server struct {
	Addr    string `yaml:"addr"`
	WebPath string `yaml:"webpath"`
}

type Data struct {
	Dir string `yaml:"dir"`
}

type Decode struct {
	Workers int  `yaml:"workers"`
	Trace   bool `yaml:"trace"`
}

type Export struct {
	Dir           string  `yaml:"dir"`
	Framerate     float32 `yaml:"framerate"`
	Interpolation string  `yaml:"interpolation"`
	Translation   bool    `yaml:"translation"`
}

type Config struct {
	Server Server `yaml:"server"`
	Data   Data   `yaml:"data"`
	Decode Decode `yaml:"decode"`
	Export Export `yaml:"export"`
}

func Default() Config {
	return Config{
		Server: Server{Addr: ":8000", WebPath: "web"},
		Data:   Data{Dir: "."},
		Decode: Decode{Workers: runtime.NumCPU()},
		Export: Export{Dir: "export", Framerate: 25, Interpolation: "LINEAR"},
	}
}

// Load reads a yaml config. A missing file is not an error, defaults are
// returned instead.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "Failed to read config %q", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "Failed to parse config %q", path)
	}
	return cfg, cfg.Resolve()
}

// Resolve fills unset values with defaults and validates the rest.
func (c *Config) Resolve() error {
	def := Default()
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.WebPath == "" {
		c.Server.WebPath = def.Server.WebPath
	}
	if c.Data.Dir == "" {
		c.Data.Dir = def.Data.Dir
	}
	if c.Decode.Workers <= 0 {
		c.Decode.Workers = def.Decode.Workers
	}
	if c.Export.Dir == "" {
		c.Export.Dir = def.Export.Dir
	}
	if c.Export.Framerate == 0 {
		c.Export.Framerate = def.Export.Framerate
	}
	if c.Export.Framerate < 0 {
		return errors.Errorf("export framerate %v is negative", c.Export.Framerate)
	}
	c.Export.Interpolation = strings.ToUpper(c.Export.Interpolation)
	switch c.Export.Interpolation {
	case "":
		c.Export.Interpolation = def.Export.Interpolation
	case "LINEAR", "STEP":
	default:
		return errors.Errorf("unknown export interpolation %q", c.Export.Interpolation)
	}
	return nil
}

func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

var current = Default()

func Set(c Config) {
	current = c
}

func Get() Config {
	return current
}
