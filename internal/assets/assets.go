// Package assets раздаёт встроенные стили и скрипты и решает,
// какие из них подключать на конкретной странице.
package assets

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"plainEvents/internal/models/domain"
)

// Handle — префикс имени ресурсов.
const Handle = "ql-plain-events"

//go:embed static
var staticFS embed.FS

// Kind — тип ресурса.
type Kind string

const (
	KindStyle  Kind = "style"
	KindScript Kind = "script"
)

// Asset — подключаемый файл.
type Asset struct {
	Handle string
	Kind   Kind
	Path   string
	Deps   []string
}

// Screen описывает страницу, для которой подбираются ресурсы.
type Screen struct {
	Admin    bool
	PostType string
}

var (
	adminAssets = []Asset{
		{Handle: Handle + "_datepicker_style", Kind: KindStyle, Path: "admin/ql-plain-events-admin.css"},
		{Handle: Handle + "_datepicker_script", Kind: KindScript, Path: "admin/ql-plain-events-admin.js"},
	}
	publicAssets = []Asset{
		{Handle: Handle, Kind: KindStyle, Path: "public/ql-plain-events-public.css"},
		{Handle: Handle, Kind: KindScript, Path: "public/ql-plain-events-public.js"},
	}
)

// ForScreen возвращает ресурсы страницы: в админке — только на экранах
// записей "event", в публичной части — всегда.
func ForScreen(s Screen) []Asset {
	if s.Admin {
		if s.PostType != domain.PostTypeEvent {
			return nil
		}
		return adminAssets
	}
	return publicAssets
}

// Tags строит теги <link>/<script> для ресурсов; prefix — URL, под которым
// смонтирован Handler, version добавляется как ?ver=.
func Tags(list []Asset, prefix, version string) template.HTML {
	var b strings.Builder
	for _, a := range list {
		src := template.HTMLEscapeString(strings.TrimSuffix(prefix, "/") + "/" + a.Path + "?ver=" + version)
		switch a.Kind {
		case KindStyle:
			b.WriteString(`<link rel="stylesheet" id="` + a.Handle + `-css" href="` + src + `" media="all" />` + "\n")
		case KindScript:
			b.WriteString(`<script id="` + a.Handle + `-js" src="` + src + `"></script>` + "\n")
		}
	}
	return template.HTML(b.String())
}

// Handler раздаёт встроенные файлы.
func Handler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
