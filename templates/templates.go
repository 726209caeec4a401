package templates

import (
	"embed"
	"html/template"
	"io/fs"
	"strings"
)

//go:embed *.html static
var files embed.FS

var funcs = template.FuncMap{
	"alertClass": func(category string) string {
		switch category {
		case "success", "danger", "warning", "info":
			return "alert-" + category
		case "error":
			return "alert-danger"
		default:
			return "alert-secondary"
		}
	},
	"upper": strings.ToUpper,
}

// Load parses every page and partial; pages are addressed by file name.
func Load() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(files, "*.html")
}

// Static returns the embedded static assets.
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
