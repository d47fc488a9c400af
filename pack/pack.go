package pack

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/vagrant_story_browser/utils"
)

type FileLoader func(d *Directory, name string, data []byte) (interface{}, error)

var gHandlers map[string]FileLoader = make(map[string]FileLoader, 0)

func SetHandler(format string, ldr FileLoader) {
	gHandlers[strings.ToUpper(format)] = ldr
}

func HasHandler(name string) bool {
	_, found := gHandlers[strings.ToUpper(filepath.Ext(name))]
	return found
}

func CallHandler(d *Directory, name string, data []byte) (interface{}, error) {
	ext := strings.ToUpper(filepath.Ext(name))

	if h, found := gHandlers[ext]; found {
		return h(d, name, data)
	} else {
		return nil, fmt.Errorf("[pack] Cannot find handler for '%s' extension", ext)
	}
}

// Directory is an unpacked game disc directory. File names are matched
// case insensitively and without the directory part.
type Directory struct {
	root  string
	trace *utils.Logger
}

func NewDirectory(root string, trace *utils.Logger) (*Directory, error) {
	st, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrapf(err, "[pack] Cannot open %q", root)
	}
	if !st.IsDir() {
		return nil, errors.Errorf("[pack] %q is not a directory", root)
	}
	return &Directory{root: root, trace: trace}, nil
}

func (d *Directory) Root() string { return d.root }

// Trace is the decoder trace sink, nil when tracing is off.
func (d *Directory) Trace() *utils.Logger { return d.trace }

// List walks the directory and returns every file a handler exists for.
func (d *Directory) List() ([]string, error) {
	files := make([]string, 0)
	err := filepath.Walk(d.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && HasHandler(info.Name()) {
			files = append(files, strings.ToUpper(info.Name()))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "[pack] Cannot list %q", d.root)
	}
	sort.Strings(files)
	return files, nil
}

func (d *Directory) find(name string) (string, error) {
	var found string
	err := filepath.Walk(d.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if found == "" && !info.IsDir() && strings.EqualFold(info.Name(), name) {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if found != "" {
		return found, nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "[pack] Cannot search %q", d.root)
	}
	return "", errors.Wrapf(os.ErrNotExist, "[pack] Cannot find file '%s'", name)
}

func (d *Directory) ReadFile(name string) ([]byte, error) {
	path, err := d.find(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "[pack] Cannot read file '%s'", name)
	}
	return data, nil
}

func (d *Directory) Exists(name string) bool {
	_, err := d.find(name)
	return err == nil
}

func GetInstanceHandler(d *Directory, fileName string) (interface{}, error) {
	data, err := d.ReadFile(fileName)
	if err != nil {
		return nil, err
	}

	inst, err := CallHandler(d, strings.ToUpper(filepath.Base(fileName)), data)
	if err != nil {
		return nil, errors.Wrapf(err, "[pack] Handler error")
	}
	return inst, nil
}
