package web

import (
	"log"
	"net/http"
	"os"
	"path"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/mogaika/vagrant_story_browser/config"
	"github.com/mogaika/vagrant_story_browser/pack"
	"github.com/mogaika/vagrant_story_browser/status"
)

var ServerDirectory *pack.Directory

func NewRouter(d *pack.Directory, webPath string) http.Handler {
	ServerDirectory = d

	r := mux.NewRouter()
	r.HandleFunc("/json/config", HandlerAjaxConfig)
	r.HandleFunc("/json/pack/{file}/{param}", HandlerAjaxPackFileParam)
	r.HandleFunc("/json/pack/{file}", HandlerAjaxPackFile)
	r.HandleFunc("/json/pack", HandlerAjaxPack)
	r.HandleFunc("/dump/pack/{file}/{param}", HandlerDumpPackParamFile)
	r.HandleFunc("/dump/pack/{file}", HandlerDumpPackFile)
	r.HandleFunc("/action/exportall", HandlerActionExportAll)
	r.HandleFunc("/ws/status", status.Handler)

	r.PathPrefix("/").Handler(http.FileServer(http.Dir(path.Join(webPath, "data"))))

	h := handlers.LoggingHandler(os.Stdout, r)
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
}

func StartServer(addr string, d *pack.Directory, webPath string) error {
	h := NewRouter(d, webPath)

	log.Printf("[web] Starting server %v (data %v, workers %d)", addr, d.Root(), config.Get().Decode.Workers)

	return http.ListenAndServe(addr, h)
}
