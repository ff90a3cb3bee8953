package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/stefan-ffr/mueller/internal/i18n"
	"github.com/stefan-ffr/mueller/internal/observability"
)

// viewSet holds one template per page, each cloned from the shared layout
// and partials. In dev mode templates are reparsed on each request.
type viewSet struct {
	dir   string
	dev   bool
	funcs template.FuncMap
	pages map[string]*template.Template
}

func newViewSet(dir string, dev bool, bundle *i18n.Bundle) (*viewSet, error) {
	v := &viewSet{
		dir: dir,
		dev: dev,
		funcs: template.FuncMap{
			"t":   bundle.T,
			"now": time.Now,
		},
	}
	pages, err := v.parse()
	if err != nil {
		return nil, err
	}
	if !dev {
		v.pages = pages
	}
	return v, nil
}

// parse reads layouts/ and partials/ into a base set, then clones it once per
// file under pages/. Note: ParseGlob doesn't support **.
func (v *viewSet) parse() (map[string]*template.Template, error) {
	var shared, pageFiles []string
	if err := filepath.WalkDir(v.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".tmpl") {
			return nil
		}
		if filepath.Base(filepath.Dir(path)) == "pages" {
			pageFiles = append(pageFiles, path)
		} else {
			shared = append(shared, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(pageFiles) == 0 {
		return nil, fmt.Errorf("no page templates found under %s", v.dir)
	}

	base := template.New("_root").Funcs(v.funcs)
	if len(shared) > 0 {
		if _, err := base.ParseFiles(shared...); err != nil {
			return nil, err
		}
	}
	pages := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFiles(file); err != nil {
			return nil, err
		}
		pages[strings.TrimSuffix(filepath.Base(file), ".tmpl")] = clone
	}
	return pages, nil
}

// render executes the base layout for page. Output is buffered so template
// errors become a clean 500 instead of a half-written page.
func (v *viewSet) render(w http.ResponseWriter, r *http.Request, page string, status int, data any) {
	logger := observability.FromContext(r.Context())
	pages := v.pages
	if v.dev {
		reparsed, err := v.parse()
		if err != nil {
			logger.Error("template parse failed", zap.Error(err))
			http.Error(w, fmt.Sprintf("template parse error: %v", err), http.StatusInternalServerError)
			return
		}
		pages = reparsed
	}
	t, ok := pages[page]
	if !ok || t.Lookup("base") == nil {
		logger.Error("template missing", zap.String("page", page))
		http.Error(w, "template not initialized", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		logger.Error("template exec failed", zap.String("page", page), zap.Error(err))
		http.Error(w, "template exec error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
