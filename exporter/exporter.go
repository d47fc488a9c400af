// Package exporter turns animation banks into glb files, one bank at a time
// or for a whole game directory.
package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/mogaika/vagrant_story_browser/config"
	"github.com/mogaika/vagrant_story_browser/pack"
	"github.com/mogaika/vagrant_story_browser/pack/seq"
	"github.com/mogaika/vagrant_story_browser/pack/shp"
	"github.com/mogaika/vagrant_story_browser/pack/skeleton"
	"github.com/mogaika/vagrant_story_browser/pack/zud"
	"github.com/mogaika/vagrant_story_browser/utils/gltfutils"
)

// Bank is an animation bank together with the skeleton it animates, when
// the model could be found.
type Bank struct {
	SEQ      *seq.SEQ
	Skeleton *skeleton.Skeleton
}

// SplitParam splits "com.3" into bank "com" and clip "3". SEQ files have no
// bank part.
func SplitParam(param string) (bank string, clip string) {
	if i := strings.IndexByte(param, '.'); i >= 0 {
		return param[:i], param[i+1:]
	}
	return "", param
}

// Clips parses a clip selector: an index or "all".
func Clips(s *seq.SEQ, clip string) ([]int, error) {
	if clip == "" || clip == "all" {
		return s.AllClips(), nil
	}
	i, err := strconv.Atoi(clip)
	if err != nil {
		return nil, errors.Errorf("clip %q is not an integer", clip)
	}
	if i < 0 || i >= len(s.Animations) {
		return nil, errors.Errorf("clip %d out of range [0,%d)", i, len(s.Animations))
	}
	return []int{i}, nil
}

// LoadBank loads a SEQ file with its companion model, or one bank of a ZUD.
func LoadBank(d *pack.Directory, file string, bank string) (*Bank, error) {
	inst, err := pack.GetInstanceHandler(d, file)
	if err != nil {
		return nil, err
	}
	switch v := inst.(type) {
	case *seq.SEQ:
		skel, err := shp.FindSkeleton(d, file)
		if err != nil {
			return nil, errors.Wrapf(err, "model of %q", file)
		}
		return &Bank{SEQ: v, Skeleton: skel}, nil
	case *zud.ZUD:
		if bank == "" {
			bank = "com"
		}
		s, err := v.Bank(bank)
		if err != nil {
			return nil, err
		}
		return &Bank{SEQ: s, Skeleton: v.SHP.Skeleton}, nil
	}
	return nil, errors.Errorf("%q has no animations", file)
}

// GLB exports the selected clips. Decode problems do not fail the export,
// they are returned alongside.
func (b *Bank) GLB(clips []int, o seq.ExportOptions) ([]byte, []error, error) {
	doc, problems, err := b.SEQ.ExportGLTF(b.Skeleton, clips, o)
	if err != nil {
		return nil, problems, err
	}
	var buf bytes.Buffer
	if err := gltfutils.ExportBinary(&buf, doc); err != nil {
		return nil, problems, errors.Wrapf(err, "encode %q", b.SEQ.Name)
	}
	return buf.Bytes(), problems, nil
}

// GLTFOptions takes the export settings of a config.
func GLTFOptions(cfg config.Config) seq.ExportOptions {
	return seq.ExportOptions{
		Framerate:     cfg.Export.Framerate,
		Interpolation: cfg.Export.Interpolation,
		Translation:   cfg.Export.Translation,
	}
}

type Options struct {
	Dir     string
	Workers int
	GLTF    seq.ExportOptions
}

type job struct {
	file string
	bank string
}

func (j job) name() string {
	if j.bank == "" {
		return j.file
	}
	return j.file + "." + j.bank
}

func (j job) output() string {
	name := strings.TrimSuffix(j.file, filepath.Ext(j.file))
	if j.bank != "" {
		name += "_" + strings.ToUpper(j.bank)
	}
	return name + ".glb"
}

// Result is the outcome of one exported bank. Path is empty for ZUD banks
// that do not exist.
type Result struct {
	Source   string
	Path     string
	Problems []error
	Err      error
}

func jobs(d *pack.Directory) ([]job, error) {
	files, err := d.List()
	if err != nil {
		return nil, err
	}
	jobs := make([]job, 0, len(files))
	for _, f := range files {
		switch strings.ToUpper(filepath.Ext(f)) {
		case ".SEQ":
			jobs = append(jobs, job{file: f})
		case ".ZUD":
			jobs = append(jobs, job{file: f, bank: "com"}, job{file: f, bank: "bt"})
		}
	}
	return jobs, nil
}

func (o Options) exportOne(d *pack.Directory, j job) Result {
	r := Result{Source: j.name()}
	b, err := LoadBank(d, j.file, j.bank)
	if err != nil {
		if !errors.Is(err, zud.ErrNoBank) {
			r.Err = err
		}
		return r
	}
	data, problems, err := b.GLB(b.SEQ.AllClips(), o.GLTF)
	r.Problems = problems
	if err != nil {
		r.Err = err
		return r
	}
	r.Path = filepath.Join(o.Dir, j.output())
	if err := os.WriteFile(r.Path, data, 0666); err != nil {
		r.Err = errors.Wrapf(err, "write %q", r.Path)
	}
	return r
}

// ExportAll writes a glb for every animation bank of the directory.
// progress is called after each bank from the exporting goroutines.
func ExportAll(d *pack.Directory, o Options, progress func(done, total int, r Result)) ([]Result, error) {
	list, err := jobs(d)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(o.Dir, 0777); err != nil {
		return nil, errors.Wrapf(err, "create %q", o.Dir)
	}
	if o.Workers < 1 {
		o.Workers = 1
	}

	results := make([]Result, len(list))
	queue := make(chan int)
	var wg sync.WaitGroup
	var lock sync.Mutex
	done := 0
	for w := 0; w < o.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				results[i] = o.exportOne(d, list[i])
				if progress != nil {
					lock.Lock()
					done++
					progress(done, len(list), results[i])
					lock.Unlock()
				}
			}
		}()
	}
	for i := range list {
		queue <- i
	}
	close(queue)
	wg.Wait()
	return results, nil
}
