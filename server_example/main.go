package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/oarkflow/fastache"
)

// pages renders engine templates by URL path. "/" maps to "index".
type pages struct {
	engine *fastache.Engine
}

func (p pages) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := path.Clean(r.URL.Path)[1:]
	if name == "" {
		name = "index"
	}
	tmpl, err := p.engine.Lookup(name)
	if errors.Is(err, fastache.ErrNonExistent) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Render(w, siteParams(time.Now())); err != nil {
		log.Printf("render %s: %v", name, err)
	}
}

func siteParams(now time.Time) *fastache.Param {
	post := func(title, date string) *fastache.Param {
		return fastache.Object("",
			fastache.String("title", title),
			fastache.String("author", "Fastache Team"),
			fastache.String("date", date),
		)
	}
	return fastache.Root(
		fastache.String("title", "Fastache Auto-Reload Demo"),
		fastache.Object("site", fastache.String("name", "Fastache Demo")),
		fastache.String("currentTime", now.Format(time.DateTime)),
		fastache.Number("year", float64(now.Year()), 0, false),
		fastache.Object("user",
			fastache.String("name", "Admin User"),
			fastache.Bool("loggedIn", true),
		),
		fastache.List("posts",
			post("Getting Started with Fastache", "2025-01-15"),
			post("Template Auto-Reload Feature", "2025-01-20"),
		),
	)
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	dir := flag.String("templates", "templates", "template directory")
	flag.Parse()

	cfg := fastache.ConfigFromEnvironment()
	fastache.SetLogger(fastache.NewLogger(os.Stderr, cfg.LogLevel))

	engine, err := fastache.NewEngine(*dir, cfg)
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}
	defer engine.Close()
	err = engine.Watch(func(filename string, _ *fastache.Template, err error) {
		if err != nil && !errors.Is(err, fastache.ErrNonExistent) {
			log.Printf("reload %s: %v", filename, err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to watch templates: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /templates", func(w http.ResponseWriter, r *http.Request) {
		list := fastache.List("names")
		for _, name := range engine.Names() {
			list.Children = append(list.Children, fastache.String("", name))
		}
		listing := fastache.MustCompile("{{#names}}{{.}}\n{{/names}}")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := listing.Render(w, fastache.Root(list)); err != nil {
			log.Printf("listing: %v", err)
		}
	})
	mux.Handle("GET /", pages{engine: engine})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.Printf("serving %s on %s, edits reload automatically", *dir, *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
