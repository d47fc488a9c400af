package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "browser.yaml")
	data := []byte("server:\n  addr: \":9000\"\ndecode:\n  trace: true\nexport:\n  interpolation: step\n  translation: true\n")
	if err := os.WriteFile(path, data, 0666); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	def := Default()
	if cfg.Server.Addr != ":9000" || cfg.Server.WebPath != def.Server.WebPath {
		t.Errorf("server %+v", cfg.Server)
	}
	if !cfg.Decode.Trace || cfg.Decode.Workers != def.Decode.Workers {
		t.Errorf("decode %+v", cfg.Decode)
	}
	if cfg.Export.Interpolation != "STEP" || !cfg.Export.Translation || cfg.Export.Framerate != 25 {
		t.Errorf("export %+v", cfg.Export)
	}
}

func TestLoadMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Errorf("Load(missing)=%+v; expected defaults", cfg)
	}
}

func TestResolve(t *testing.T) {
	for _, test := range []struct {
		cfg Config
		ok  bool
	}{
		{Config{}, true},
		{Config{Export: Export{Interpolation: "cubic"}}, false},
		{Config{Export: Export{Framerate: -1}}, false},
		{Config{Export: Export{Interpolation: "Linear"}}, true},
	} {
		err := test.cfg.Resolve()
		if (err == nil) != test.ok {
			t.Errorf("Resolve(%+v) err=%v; expected ok=%v", test.cfg, err, test.ok)
		}
	}

	var cfg Config
	cfg.Resolve()
	if cfg != Default() {
		t.Errorf("Resolve of empty config=%+v; expected defaults", cfg)
	}
}
