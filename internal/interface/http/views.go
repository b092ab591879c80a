package http

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/kundali-web/internal/domain/chat"
	"github.com/yanqian/kundali-web/internal/domain/form"
	"github.com/yanqian/kundali-web/internal/domain/places"
)

//go:embed templates/*.html
var templateFS embed.FS

// Views renders the page and its HTML fragments.
type Views struct {
	tmpl *template.Template
}

type pageData struct {
	Form form.Form
	Chat chat.Widget
}

// NewViews parses the embedded templates.
func NewViews() (*Views, error) {
	funcs := template.FuncMap{
		// Chat message HTML is escaped before formatting.
		"safe":      func(s string) template.HTML { return template.HTML(s) },
		"emptyList": func() places.Autocomplete { return places.Autocomplete{} },
		"selectVals": func(q string, i int) (string, error) {
			out, err := json.Marshal(map[string]string{"q": q, "i": strconv.Itoa(i)})
			return string(out), err
		},
	}
	tmpl, err := template.New("views").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Views{tmpl: tmpl}, nil
}

func (v *Views) page(f form.Form, w chat.Widget) (string, error) {
	return v.render("page", pageData{Form: f, Chat: w})
}

func (v *Views) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := v.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// write renders a fragment or records a template failure for the error middleware.
func (v *Views) write(c *gin.Context, status int, name string, data any) {
	out, err := v.render(name, data)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "render_failed", "failed to render view", err))
		return
	}
	c.Data(status, "text/html; charset=utf-8", []byte(out))
}
