package server

import (
	"bytes"
	"embed"
	"fmt"
	"net/http"

	"github.com/nikolalohinski/gonja/v2"
	"github.com/nikolalohinski/gonja/v2/exec"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

const layoutName = "layout.html"

// Page bodies are rendered first and then wrapped in the layout.
var pageNames = []string{"auth.html", "index.html", "profile.html", "dashboard.html"}

type pages struct {
	layout *exec.Template
	byName map[string]*exec.Template
}

func loadPages() (*pages, error) {
	parse := func(name string) (*exec.Template, error) {
		src, err := templateFiles.ReadFile("templates/" + name)
		if err != nil {
			return nil, err
		}
		tpl, err := gonja.FromString(string(src))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return tpl, nil
	}

	layout, err := parse(layoutName)
	if err != nil {
		return nil, err
	}

	p := &pages{layout: layout, byName: make(map[string]*exec.Template, len(pageNames))}
	for _, name := range pageNames {
		tpl, err := parse(name)
		if err != nil {
			return nil, err
		}
		p.byName[name] = tpl
	}
	return p, nil
}

func (p *pages) render(name string, data map[string]interface{}) ([]byte, error) {
	tpl, ok := p.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", name)
	}

	var body bytes.Buffer
	if err := tpl.Execute(&body, exec.NewContext(data)); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}

	data["body"] = body.String()

	var out bytes.Buffer
	if err := p.layout.Execute(&out, exec.NewContext(data)); err != nil {
		return nil, fmt.Errorf("failed to render layout for %s: %w", name, err)
	}
	return out.Bytes(), nil
}

// renderPage fills in the signed-in user and pending flashes, then writes the page.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	if u := currentUser(r.Context()); u != nil {
		if _, ok := data["user"]; !ok {
			data["user"] = userView(u)
		}
	}
	if _, ok := data["flashes"]; !ok {
		data["flashes"] = s.flashes(w, r)
	}

	html, err := s.pages.render(name, data)
	if err != nil {
		s.log(r.Context()).Error(r.Context(), "failed to render page", "page", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(html)
}
