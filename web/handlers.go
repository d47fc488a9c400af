package web

import (
	"bytes"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/vagrant_story_browser/config"
	"github.com/mogaika/vagrant_story_browser/exporter"
	"github.com/mogaika/vagrant_story_browser/pack"
	file_seq "github.com/mogaika/vagrant_story_browser/pack/seq"
	"github.com/mogaika/vagrant_story_browser/status"
	"github.com/mogaika/vagrant_story_browser/webutils"
)

// ClipReport is the json view of one decoded clip.
type ClipReport struct {
	Clip     *file_seq.Clip
	Pose     *file_seq.Pose
	Problems []string
}

func NewClipReport(c *file_seq.Clip) *ClipReport {
	return &ClipReport{
		Clip:     c,
		Pose:     file_seq.BuildPose(c),
		Problems: webutils.ErrorStrings(c.Problems()),
	}
}

func HandlerAjaxConfig(w http.ResponseWriter, r *http.Request) {
	webutils.WriteJson(w, config.Get())
}

func HandlerAjaxPack(w http.ResponseWriter, r *http.Request) {
	if files, err := ServerDirectory.List(); err != nil {
		webutils.WriteError(w, err)
	} else {
		webutils.WriteJson(w, files)
	}
}

func HandlerAjaxPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	data, err := pack.GetInstanceHandler(ServerDirectory, file)
	if err != nil {
		log.Printf("Error getting file from pack: %v", err)
		webutils.WriteError(w, err)
	} else {
		webutils.WriteJson(w, data)
	}
}

func HandlerAjaxPackFileParam(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	bankName, clip := exporter.SplitParam(mux.Vars(r)["param"])

	bank, err := exporter.LoadBank(ServerDirectory, file, bankName)
	if err != nil {
		log.Printf("Error getting file from pack: %v", err)
		webutils.WriteError(w, err)
		return
	}
	if clip == "" {
		webutils.WriteJson(w, bank.SEQ)
		return
	}
	clips, err := exporter.Clips(bank.SEQ, clip)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	reports := make([]*ClipReport, 0, len(clips))
	for _, i := range clips {
		c, err := bank.SEQ.DecodeClip(i)
		if err != nil {
			webutils.WriteError(w, errors.Wrapf(err, "clip %d", i))
			return
		}
		reports = append(reports, NewClipReport(c))
	}
	if len(reports) == 1 {
		webutils.WriteJson(w, reports[0])
	} else {
		webutils.WriteJson(w, reports)
	}
}

func HandlerDumpPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	data, err := ServerDirectory.ReadFile(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteFile(w, bytes.NewReader(data), file)
}

func HandlerDumpPackParamFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	bankName, clip := exporter.SplitParam(mux.Vars(r)["param"])

	bank, err := exporter.LoadBank(ServerDirectory, file, bankName)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	clips, err := exporter.Clips(bank.SEQ, clip)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	name := bank.SEQ.Name
	if len(clips) == 1 {
		name = bank.SEQ.ClipName(clips[0])
	}

	if r.URL.Query().Get("format") == "json" {
		reports := make([]*ClipReport, 0, len(clips))
		for _, i := range clips {
			c, err := bank.SEQ.DecodeClip(i)
			if err != nil {
				webutils.WriteError(w, errors.Wrapf(err, "clip %d", i))
				return
			}
			reports = append(reports, NewClipReport(c))
		}
		webutils.WriteJsonFile(w, reports, name)
		return
	}

	glb, problems, err := bank.GLB(clips, exporter.GLTFOptions(config.Get()))
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	for _, p := range problems {
		log.Printf("[web] %s: %v", bank.SEQ.Name, p)
	}

	webutils.WriteFile(w, bytes.NewReader(glb), name+".glb")
}

func HandlerActionExportAll(w http.ResponseWriter, r *http.Request) {
	cfg := config.Get()
	o := exporter.Options{
		Dir:     cfg.Export.Dir,
		Workers: cfg.Decode.Workers,
		GLTF:    exporter.GLTFOptions(cfg),
	}
	go func() {
		results, err := exporter.ExportAll(ServerDirectory, o, func(done, total int, res exporter.Result) {
			if res.Err != nil {
				status.Error("%s: %v", res.Source, res.Err)
			} else {
				status.Progress(float32(done)/float32(total), "exported %s", res.Source)
			}
		})
		if err != nil {
			status.Error("export failed: %v", err)
			return
		}
		status.Info("exported %d banks to %s", len(results), o.Dir)
	}()
	webutils.WriteJson(w, "started")
}
