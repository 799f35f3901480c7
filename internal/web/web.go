// Package web holds the server-rendered pages.
package web

import (
	"embed"
	"html/template"
	"time"

	"todoboard/internal/dto"
)

//go:embed templates/*.html
var files embed.FS

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"inputDate": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format(dto.FormDateLayout)
		},
		"showDate": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format("2006-01-02 15:04")
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}).ParseFS(files, "templates/*.html")
}
