package crawler

import (
	"net/url"
	"path"
	"strings"
)

// skippedExtensions lists path suffixes that never carry textual page
// content. URLs ending in one of these are rejected before fetching.
var skippedExtensions = map[string]bool{
	".png":   true,
	".jpg":   true,
	".jpeg":  true,
	".gif":   true,
	".svg":   true,
	".webp":  true,
	".ico":   true,
	".bmp":   true,
	".css":   true,
	".js":    true,
	".mjs":   true,
	".json":  true,
	".xml":   true,
	".woff":  true,
	".woff2": true,
	".ttf":   true,
	".otf":   true,
	".eot":   true,
	".zip":   true,
	".tar":   true,
	".gz":    true,
	".tgz":   true,
	".bz2":   true,
	".xz":    true,
	".7z":    true,
	".rar":   true,
	".mp3":   true,
	".mp4":   true,
	".avi":   true,
	".mov":   true,
	".webm":  true,
	".wav":   true,
	".ogg":   true,
	".exe":   true,
	".dmg":   true,
	".iso":   true,
	".deb":   true,
	".rpm":   true,
}

// Scope decides whether a candidate URL belongs to the crawl. A scope is
// anchored at a seed URL: candidates must share its host (or one of the
// explicitly allowed extra hosts) and live under its base path.
type Scope struct {
	host         string
	basePath     string
	allowedHosts map[string]bool
}

// NewScope builds a scope from the seed URL. Candidates must share the
// seed host (or one of the explicitly allowed extra hosts) and sit at or
// beneath the seed path: a seed of /docs admits /docs and /docs/a but not
// /docsearch or /blog. A root seed admits the whole host. Extra hosts,
// such as subdomains serving the same documentation set, can be allowed
// alongside the seed host.
func NewScope(seed *url.URL, allowedHosts []string) *Scope {
	basePath := strings.TrimSuffix(seed.Path, "/")

	allowed := make(map[string]bool, len(allowedHosts))
	for _, h := range allowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			allowed[h] = true
		}
	}

	return &Scope{
		host:         strings.ToLower(seed.Host),
		basePath:     basePath,
		allowedHosts: allowed,
	}
}

// Allows reports whether the candidate URL is inside the crawl scope.
func (s *Scope) Allows(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Host)
	if host != s.host && !s.allowedHosts[host] {
		return false
	}

	p := strings.TrimSuffix(u.Path, "/")
	if s.basePath != "" && p != s.basePath && !strings.HasPrefix(p, s.basePath+"/") {
		return false
	}

	return !skippedExtensions[strings.ToLower(path.Ext(u.Path))]
}

// BasePath returns the path prefix the scope is anchored at. The root
// path reports as empty.
func (s *Scope) BasePath() string {
	return s.basePath
}
