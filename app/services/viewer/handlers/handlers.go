// Package handlers contains the full set of handler functions and routes
// supported by the viewer.
package handlers

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/luismeyer95/blockchain-sim-sub000/business/web/mid"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/web"
)

//go:embed assets/index.html
var assets embed.FS

// UIMux constructs an http.Handler with all application routes defined. The
// page streams the events of the node at nodeHost.
func UIMux(build string, shutdown chan os.Signal, log *zap.SugaredLogger, nodeHost string) (*web.App, error) {
	app := web.NewApp(
		shutdown,
		mid.Logger(log),
		mid.Errors(log),
		mid.Panics(),
		mid.Cors("*"),
	)

	// Register the index page for the website.
	ig, err := newIndex(build, nodeHost)
	if err != nil {
		return nil, fmt.Errorf("loading index template: %w", err)
	}
	app.Handle(http.MethodGet, "", "/", ig.handler)

	return app, nil
}

type index struct {
	tmpl *template.Template
	data struct {
		Build    string
		NodeHost string
	}
}

func newIndex(build string, nodeHost string) (*index, error) {
	tmpl, err := template.ParseFS(assets, "assets/index.html")
	if err != nil {
		return nil, err
	}

	ig := index{tmpl: tmpl}
	ig.data.Build = build
	ig.data.NodeHost = nodeHost

	return &ig, nil
}

func (ig *index) handler(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := web.SetStatusCode(ctx, http.StatusOK); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := ig.tmpl.Execute(w, ig.data); err != nil {
		return fmt.Errorf("rendering index page: %w", err)
	}

	return nil
}
