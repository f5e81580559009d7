// Package views renders the HTML pages. Every page template is parsed
// together with layout.html and executed through the "layout" template.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"

	"github.com/ErnestWetherell/microcanvas-m1/internal/middleware"
	"github.com/ErnestWetherell/microcanvas-m1/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"markdown": func(content string) template.HTML {
		var buf strings.Builder
		if err := goldmark.Convert([]byte(content), &buf); err != nil {
			return template.HTML("<p>Error rendering markdown</p>")
		}
		return template.HTML(buf.String())
	},
	"statusLabel": func(s models.TaskStatus) string { return s.Label() },
	"roleLabel":   func(r models.Role) string { return r.Label() },
	"statuses":    func() []models.TaskStatus { return models.Statuses },
	"date":        formatDate,
	"datetime": func(t time.Time) string {
		return t.Format("Jan 2, 2006 15:04")
	},
	"score": ScoreText,
	"percent": func(f float64) string {
		return fmt.Sprintf("%.0f%%", f)
	},
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "No due date"
	}
	return t.Format("Jan 2, 2006")
}

// ScoreText is how a task's grade is shown: zero is a grade like any other.
func ScoreText(t models.Task) string {
	if t.Score == nil {
		return "Not graded"
	}
	return fmt.Sprintf("%d/%d", *t.Score, t.Points)
}

type Renderer struct {
	pages map[string]*template.Template
}

func New() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "list templates")
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		name := strings.TrimSuffix(strings.TrimPrefix(file, "templates/"), ".html")
		if name == "layout" {
			continue
		}
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", file)
		if err != nil {
			return nil, errors.Wrapf(err, "parse template %s", name)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Render implements echo.Renderer. Map data gets the signed-in user and the
// pending flash message added under "CurrentUser" and "Flash".
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return errors.Errorf("unknown template %q", name)
	}

	if m, ok := data.(echo.Map); ok && c != nil {
		page := make(echo.Map, len(m)+2)
		for k, v := range m {
			page[k] = v
		}
		page["CurrentUser"] = middleware.CurrentUser(c)
		page["Flash"] = middleware.PopFlash(c)
		data = page
	}
	return t.ExecuteTemplate(w, "layout", data)
}
