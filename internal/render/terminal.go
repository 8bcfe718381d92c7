package render

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/glamour"
)

// termPool hands out glamour renderers keyed by options.
// glamour.TermRenderer is not safe for concurrent Render calls, so each
// caller borrows one and gives it back.
type termPool struct {
	mu    sync.RWMutex
	pools map[string]*sync.Pool
}

var terminalPool = &termPool{pools: make(map[string]*sync.Pool)}

func poolKey(opts Options) string {
	return fmt.Sprintf("%s:%d:%t:%t:%t:%t",
		opts.Style, opts.Width, opts.EnableEmoji, opts.PreserveNewLines, opts.TableWrap, opts.InlineTableLinks)
}

func (p *termPool) pool(opts Options) *sync.Pool {
	key := poolKey(opts)

	p.mu.RLock()
	pool, ok := p.pools[key]
	p.mu.RUnlock()
	if ok {
		return pool
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if pool, ok := p.pools[key]; ok {
		return pool
	}
	pool = &sync.Pool{}
	p.pools[key] = pool
	return pool
}

func (p *termPool) get(opts Options) (*glamour.TermRenderer, error) {
	if r, ok := p.pool(opts).Get().(*glamour.TermRenderer); ok && r != nil {
		return r, nil
	}
	return newTermRenderer(opts)
}

func (p *termPool) put(opts Options, r *glamour.TermRenderer) {
	if r == nil {
		return
	}
	p.pool(opts).Put(r)
}

func newTermRenderer(opts Options) (*glamour.TermRenderer, error) {
	rendererOpts := []glamour.TermRendererOption{
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}

	if opts.Style == StyleAuto || opts.Style == "" {
		rendererOpts = append(rendererOpts, glamour.WithAutoStyle())
	} else {
		rendererOpts = append(rendererOpts, glamour.WithStylePath(opts.Style))
	}
	if opts.EnableEmoji {
		rendererOpts = append(rendererOpts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		rendererOpts = append(rendererOpts, glamour.WithPreservedNewLines())
	}

	return glamour.NewTermRenderer(rendererOpts...)
}

// Markdown renders markdown content for terminal display.
func Markdown(content string, opts Options) (string, error) {
	r, err := terminalPool.get(opts)
	if err != nil {
		return "", err
	}
	defer terminalPool.put(opts, r)

	return r.Render(content)
}

// MarkdownWithWidth renders with default options at the given width.
func MarkdownWithWidth(content string, width int) (string, error) {
	return Markdown(content, DefaultOptions().WithWidth(width))
}

// ClearCache drops every pooled renderer.
func ClearCache() {
	terminalPool.mu.Lock()
	terminalPool.pools = make(map[string]*sync.Pool)
	terminalPool.mu.Unlock()
}

// CacheSize returns the number of distinct option sets seen so far.
func CacheSize() int {
	terminalPool.mu.RLock()
	defer terminalPool.mu.RUnlock()
	return len(terminalPool.pools)
}
