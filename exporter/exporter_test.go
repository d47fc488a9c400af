package exporter

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/mogaika/vagrant_story_browser/pack"
	"github.com/mogaika/vagrant_story_browser/pack/seq"
)

// one clip bank with numBones bones, every bone rotating around z
func testSEQ(numBones int) []byte {
	records := seq.HEADER_SIZE + seq.ANIMATION_FIXED_SIZE + 4*numBones
	b := make([]byte, records)
	binary.LittleEndian.PutUint16(b[2:], uint16(numBones))
	binary.LittleEndian.PutUint32(b[8:], uint32(records-seq.HEADER_POINTERS_BASE))
	binary.LittleEndian.PutUint32(b[12:], uint32(records-seq.HEADER_POINTERS_BASE))
	rec := b[seq.HEADER_SIZE:]
	binary.LittleEndian.PutUint16(rec[0:], 8)
	rec[2] = 0xff
	for i := 0; i < numBones; i++ {
		binary.LittleEndian.PutUint16(rec[seq.ANIMATION_FIXED_SIZE+i*2:], 7)
	}
	b = append(b, 0, 0, 0, 0, 0, 0, 0)
	// base (0, 0, 0x100) then a 7 frame z delta
	return append(b, 0, 0, 0, 0, 1, 0, 0x26, 10, 0)
}

func testDirectory(t *testing.T) *pack.Directory {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "00_COM.SEQ"), testSEQ(2), 0666); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.TXT"), []byte("hi"), 0666); err != nil {
		t.Fatal(err)
	}
	d, err := pack.NewDirectory(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestSplitParam(t *testing.T) {
	for _, test := range []struct {
		param, bank, clip string
	}{
		{"3", "", "3"},
		{"com.3", "com", "3"},
		{"bt.all", "bt", "all"},
		{"com.", "com", ""},
	} {
		if bank, clip := SplitParam(test.param); bank != test.bank || clip != test.clip {
			t.Errorf("SplitParam(%q)=%q,%q; expected %q,%q", test.param, bank, clip, test.bank, test.clip)
		}
	}
}

func TestLoadBankAndGLB(t *testing.T) {
	d := testDirectory(t)
	b, err := LoadBank(d, "00_com.seq", "")
	if err != nil {
		t.Fatal(err)
	}
	if b.SEQ.Name != "00_COM" || b.Skeleton != nil {
		t.Errorf("bank %q skeleton %v", b.SEQ.Name, b.Skeleton)
	}
	if _, err := Clips(b.SEQ, "1"); err == nil {
		t.Errorf("Clips(1) must fail for a single clip bank")
	}
	clips, err := Clips(b.SEQ, "all")
	if err != nil || len(clips) != 1 {
		t.Fatalf("Clips(all)=%v,%v", clips, err)
	}

	glb, problems, err := b.GLB(clips, seq.DefaultExportOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(problems) != 0 {
		t.Errorf("unexpected problems %v", problems)
	}
	if !bytes.HasPrefix(glb, []byte("glTF")) {
		t.Errorf("glb does not start with the binary magic")
	}
}

func TestExportAll(t *testing.T) {
	d := testDirectory(t)
	out := filepath.Join(t.TempDir(), "out")
	calls := 0
	results, err := ExportAll(d, Options{Dir: out, Workers: 2, GLTF: seq.DefaultExportOptions()},
		func(done, total int, r Result) {
			calls++
			if total != 1 {
				t.Errorf("total %d; expected 1", total)
			}
		})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Err != nil || calls != 1 {
		t.Fatalf("results %+v calls %d", results, calls)
	}
	if _, err := os.Stat(filepath.Join(out, "00_COM.glb")); err != nil {
		t.Errorf("glb not written: %v", err)
	}
}

func TestGLTFSamplerTimeRange(t *testing.T) {
	d := testDirectory(t)
	b, err := LoadBank(d, "00_COM.SEQ", "")
	if err != nil {
		t.Fatal(err)
	}
	doc, problems, err := b.SEQ.ExportGLTF(b.Skeleton, b.SEQ.AllClips(), seq.ExportOptions{Framerate: 25, Interpolation: "LINEAR"})
	if err != nil || len(problems) != 0 {
		t.Fatalf("ExportGLTF err=%v problems=%v", err, problems)
	}
	if len(doc.Animations) != 1 || len(doc.Animations[0].Samplers) != 2 {
		t.Fatalf("unexpected animations %+v", doc.Animations)
	}
	for i, s := range doc.Animations[0].Samplers {
		input := doc.Accessors[*s.Input]
		if input.Count != 2 || len(input.Min) != 1 || len(input.Max) != 1 {
			t.Errorf("sampler %d input count=%d min=%v max=%v", i, input.Count, input.Min, input.Max)
			continue
		}
		if input.Min[0] != 0 || input.Max[0] != float32(7)/25 {
			t.Errorf("sampler %d time range [%v,%v]; expected [0,%v]", i, input.Min[0], input.Max[0], float32(7)/25)
		}
	}
}
