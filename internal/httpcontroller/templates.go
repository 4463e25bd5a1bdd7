package httpcontroller

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/oceanecho/oceanecho/internal/analysis"
	"github.com/oceanecho/oceanecho/internal/logger"
	"github.com/oceanecho/oceanecho/internal/samples"
)

//go:embed views/*.html
var viewsFS embed.FS

// PageData is rendered by the index template.
type PageData struct {
	Title     string
	Subtitle  string
	CSRFToken string
	Accept    string
	Samples   []samples.Sample
	Selected  map[string]bool
	Report    *analysis.BatchReport
	Notice    string
}

// TemplateRenderer is an html/template renderer for Echo.
type TemplateRenderer struct {
	templates *template.Template
}

// Render renders a named template with the given data.
func (t *TemplateRenderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

func templateFuncs() template.FuncMap {
	title := cases.Title(language.English)
	return template.FuncMap{
		"confidence": func(r analysis.Result) string { return r.ConfidenceText() },
		"errorKind": func(k analysis.ErrorKind) string {
			if k == analysis.ErrorKindNone {
				return ""
			}
			return title.String(strings.ReplaceAll(string(k), "_", " ")) + " error"
		},
	}
}

func (s *Server) setupTemplateRenderer() error {
	tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(viewsFS, "views/*.html")
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}
	s.Echo.Renderer = &TemplateRenderer{templates: tmpl}
	return nil
}

// pageData fills the fields every render needs.
func (s *Server) pageData(c echo.Context) PageData {
	name := s.Settings.Main.Name
	if name == "" {
		name = "Oceanecho"
	}
	token, _ := c.Get(CSRFContextKey).(string)

	list, err := s.Samples.List()
	if err != nil {
		s.log.Warn("failed to list samples", logger.Error(err))
	}

	return PageData{
		Title:     name,
		Subtitle:  "From Echoes to Insights",
		CSRFToken: token,
		Accept:    strings.Join(s.Samples.Extensions(), ","),
		Samples:   list,
		Selected:  map[string]bool{},
	}
}
