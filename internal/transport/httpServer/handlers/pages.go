package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"plainEvents/internal/assets"
	"plainEvents/internal/utils"
	"plainEvents/internal/utils/logger/sl"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pages = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// AssetsConfig — где смонтированы встроенные ресурсы и какую версию
// подставлять в ?ver=.
type AssetsConfig struct {
	Prefix  string
	Version string
}

type page struct {
	Lang      string
	Title     string
	BodyClass string
	Assets    template.HTML
	Data      any
}

func (a AssetsConfig) tags(screen assets.Screen) template.HTML {
	return assets.Tags(assets.ForScreen(screen), a.Prefix, a.Version)
}

func renderPage(log *slog.Logger, w http.ResponseWriter, status int, name string, p page) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, p); err != nil {
		log.Error("error rendering page", slog.String("page", name), sl.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if err := utils.Html(w, status, buf.String()); err != nil {
		log.Error("error sending http response", sl.Err(err))
	}
}
