package web

import (
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/mogaika/vagrant_story_browser/pack"
	"github.com/mogaika/vagrant_story_browser/pack/seq"
)

// single clip, single bone bank with a 7 frame rotation around z
func testSEQ() []byte {
	records := seq.HEADER_SIZE + seq.ANIMATION_FIXED_SIZE + 4
	b := make([]byte, records)
	binary.LittleEndian.PutUint16(b[2:], 1)
	binary.LittleEndian.PutUint32(b[8:], uint32(records-seq.HEADER_POINTERS_BASE))
	binary.LittleEndian.PutUint32(b[12:], uint32(records-seq.HEADER_POINTERS_BASE))
	rec := b[seq.HEADER_SIZE:]
	binary.LittleEndian.PutUint16(rec[0:], 8)
	rec[2] = 0xff
	binary.LittleEndian.PutUint16(rec[seq.ANIMATION_FIXED_SIZE:], 7)
	b = append(b, 0, 0, 0, 0, 0, 0, 0)
	return append(b, 0, 0, 0, 0, 1, 0, 0x26, 10, 0)
}

func testServer(t *testing.T) *httptest.Server {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "00_COM.SEQ"), testSEQ(), 0666); err != nil {
		t.Fatal(err)
	}
	d, err := pack.NewDirectory(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(NewRouter(d, t.TempDir()))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string, v interface{}) int {
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestPackList(t *testing.T) {
	srv := testServer(t)
	var files []string
	if code := get(t, srv.URL+"/json/pack", &files); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(files) != 1 || files[0] != "00_COM.SEQ" {
		t.Errorf("files=%v; expected [00_COM.SEQ]", files)
	}
}

func TestPackFile(t *testing.T) {
	srv := testServer(t)
	var s struct {
		Name       string
		Animations []struct{ Length uint16 }
	}
	if code := get(t, srv.URL+"/json/pack/00_com.seq", &s); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if s.Name != "00_COM" || len(s.Animations) != 1 || s.Animations[0].Length != 8 {
		t.Errorf("got %+v", s)
	}
}

func TestPackClip(t *testing.T) {
	srv := testServer(t)
	var r struct {
		Clip struct{ Name string }
		Pose struct {
			Bones []struct {
				Rotation []struct{ Frame uint32 }
			}
		}
		Problems []string
	}
	if code := get(t, srv.URL+"/json/pack/00_COM.SEQ/0", &r); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if r.Clip.Name != "00_COM_Animation_0" {
		t.Errorf("clip name %q", r.Clip.Name)
	}
	if len(r.Pose.Bones) != 1 || len(r.Pose.Bones[0].Rotation) != 2 {
		t.Fatalf("pose %+v", r.Pose)
	}
	if f := r.Pose.Bones[0].Rotation[1].Frame; f != 7 {
		t.Errorf("last rotation frame %d; expected 7", f)
	}
	if len(r.Problems) != 0 {
		t.Errorf("problems %v", r.Problems)
	}
}

func TestPackErrors(t *testing.T) {
	srv := testServer(t)
	for _, url := range []string{
		"/json/pack/MISSING.SEQ",
		"/json/pack/00_COM.SEQ/9",
		"/json/pack/00_COM.SEQ/x",
	} {
		var e struct{ Error string }
		if code := get(t, srv.URL+url, &e); code != http.StatusInternalServerError || e.Error == "" {
			t.Errorf("GET %s=%d %q; expected error", url, code, e.Error)
		}
	}
}

func TestDumpGLB(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Get(srv.URL + "/dump/pack/00_COM.SEQ/0")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "00_COM_Animation_0.glb") {
		t.Errorf("Content-Disposition %q", cd)
	}
	magic := make([]byte, 4)
	if _, err := resp.Body.Read(magic); err != nil || string(magic) != "glTF" {
		t.Errorf("magic %q, %v", magic, err)
	}
}

func TestDumpJSON(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Get(srv.URL + "/dump/pack/00_COM.SEQ/all?format=json")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "00_COM_Animation_0.json") {
		t.Errorf("Content-Disposition %q", cd)
	}
	var reports []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&reports); err != nil || len(reports) != 1 {
		t.Errorf("reports %d, %v", len(reports), err)
	}
}
