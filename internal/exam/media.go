package exam

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"
)

const (
	maxRemoteImageBytes = 10 << 20
	prefetchLimit       = 4
)

var ErrUnsupportedImageSource = errors.New("unsupported image source")

// MediaResolver maps <img src> values to bytes or filesystem paths under the
// configured media root.
type MediaResolver struct {
	MediaURL  string
	MediaRoot string
	Client    *http.Client
}

func NewMediaResolver(mediaURL, mediaRoot string) *MediaResolver {
	if mediaURL == "" {
		mediaURL = "/media/"
	}
	return &MediaResolver{
		MediaURL:  mediaURL,
		MediaRoot: mediaRoot,
		Client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// LocalPath returns the absolute path of a media URL, if the file exists.
func (m *MediaResolver) LocalPath(src string) (string, bool) {
	if m.MediaRoot == "" || !strings.HasPrefix(src, m.MediaURL) {
		return "", false
	}
	rel, err := url.PathUnescape(strings.TrimPrefix(src, m.MediaURL))
	if err != nil || rel == "" {
		return "", false
	}
	p, ok := m.withinRoot(filepath.Join(m.MediaRoot, filepath.FromSlash(rel)))
	if !ok {
		return "", false
	}
	if fi, err := os.Stat(p); err != nil || fi.IsDir() {
		return "", false
	}
	return p, true
}

func (m *MediaResolver) withinRoot(p string) (string, bool) {
	root, err := filepath.Abs(m.MediaRoot)
	if err != nil {
		return "", false
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", false
	}
	if abs != root && !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return "", false
	}
	return abs, true
}

// RewriteLocalSources replaces media URLs in <img src> with filesystem
// paths. Data URIs, remote URLs and missing files are left untouched.
func (m *MediaResolver) RewriteLocalSources(fragment string) (string, error) {
	if !strings.Contains(fragment, m.MediaURL) {
		return fragment, nil
	}
	root, err := parseFragment(fragment)
	if err != nil {
		return "", err
	}
	eachImage(root, func(img *html.Node) {
		if p, ok := m.LocalPath(attr(img, "src")); ok {
			setAttr(img, "src", p)
		}
	})
	return renderChildren(root)
}

// Load returns the bytes behind an image src: a data URI, a path inside the
// media root, a media URL or an http(s) URL.
func (m *MediaResolver) Load(ctx context.Context, src string) ([]byte, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		return DecodeDataURI(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return m.fetch(ctx, src)
	}
	if p, ok := m.LocalPath(src); ok {
		return os.ReadFile(p)
	}
	if filepath.IsAbs(src) && m.MediaRoot != "" {
		if p, ok := m.withinRoot(src); ok {
			return os.ReadFile(p)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedImageSource, truncate(src, 64))
}

func (m *MediaResolver) fetch(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", src, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxRemoteImageBytes))
}

// Prefetch loads every remote image in srcs concurrently. Failed fetches are
// omitted from the result; local sources are not touched.
func (m *MediaResolver) Prefetch(ctx context.Context, srcs []string) map[string][]byte {
	out := make(map[string][]byte)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchLimit)
	seen := make(map[string]bool)
	for _, src := range srcs {
		if seen[src] || !(strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")) {
			continue
		}
		seen[src] = true
		g.Go(func() error {
			data, err := m.fetch(gctx, src)
			if err != nil {
				return nil
			}
			mu.Lock()
			out[src] = data
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// DecodeDataURI decodes a base64 data URI.
func DecodeDataURI(src string) ([]byte, error) {
	comma := strings.IndexByte(src, ',')
	if !strings.HasPrefix(src, "data:") || comma < 0 {
		return nil, fmt.Errorf("malformed data uri")
	}
	meta := src[len("data:"):comma]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("data uri is not base64 encoded")
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(src[comma+1:]))
}

func eachImage(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Img {
			fn(c)
			continue
		}
		eachImage(c, fn)
	}
}

// ImageSources lists every <img src> of the rendered document in order.
func ImageSources(doc *Document) []string {
	var srcs []string
	for _, b := range doc.Blocks {
		if b.HTML == "" {
			continue
		}
		root, err := parseFragment(b.HTML)
		if err != nil {
			continue
		}
		eachImage(root, func(img *html.Node) {
			if s := attr(img, "src"); s != "" {
				srcs = append(srcs, s)
			}
		})
	}
	return srcs
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
