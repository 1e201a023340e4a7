package adapthttp

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

var errOutsideRoot = errors.New("path escapes public root")

var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".json": "application/json; charset=utf-8",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
}

// staticHandler serves files below a public root directory.
type staticHandler struct {
	root string
	log  zerolog.Logger
}

func newStaticHandler(dir string, log zerolog.Logger) *staticHandler {
	root, err := filepath.Abs(dir)
	if err != nil {
		root = filepath.Clean(dir)
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	return &staticHandler{root: root, log: log}
}

// resolve maps a URL path onto a path below the root. It never touches the
// filesystem.
func (h *staticHandler) resolve(urlPath string) (string, error) {
	if strings.IndexByte(urlPath, 0) >= 0 {
		return "", errOutsideRoot
	}
	rel := strings.TrimPrefix(urlPath, "/")
	if rel == "" {
		rel = "index.html"
	}
	target := filepath.Join(h.root, filepath.FromSlash(rel))
	if !h.inside(target) {
		return "", errOutsideRoot
	}
	return target, nil
}

func (h *staticHandler) inside(p string) bool {
	return p == h.root || strings.HasPrefix(p, h.root+string(filepath.Separator))
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeText(w, http.StatusNotFound, "Not found")
		return
	}

	target, err := h.resolve(r.URL.Path)
	if err != nil {
		h.log.Warn().Str("path", r.URL.Path).Msg("static path outside public root")
		writeText(w, http.StatusForbidden, "Forbidden")
		return
	}

	fi, err := os.Stat(target)
	if err == nil && fi.IsDir() {
		target = filepath.Join(target, "index.html")
		fi, err = os.Stat(target)
	}
	if err != nil {
		if alt, altErr := os.Stat(target + ".html"); altErr == nil && !alt.IsDir() {
			target, fi, err = target+".html", alt, nil
		}
	}
	if err != nil || fi.IsDir() {
		writeText(w, http.StatusNotFound, "Not found")
		return
	}

	// A symlink inside the root may still point elsewhere.
	if resolved, err := filepath.EvalSymlinks(target); err != nil || !h.inside(resolved) {
		writeText(w, http.StatusForbidden, "Forbidden")
		return
	}

	f, err := os.Open(target)
	if err != nil {
		writeText(w, http.StatusNotFound, "Not found")
		return
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(target))
	ct, ok := contentTypes[ext]
	if !ok {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	if ext == ".html" {
		w.Header().Set("Cache-Control", "no-cache")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=3600")
	}
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}
