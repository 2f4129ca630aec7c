// Package fsprobe provides the read-only view of a workspace used by probes and analyzers.
//
// Every operation degrades to a negative answer on failure: a missing file, a permission
// error or a cancelled walk all read as "not present". Callers never see I/O errors.
package fsprobe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dgraph-io/ristretto/v2"
)

// DefaultMaxReadBytes bounds ReadText when the caller passes a non-positive limit.
const DefaultMaxReadBytes = 256 * 1024

// Reader is the filesystem read interface. Paths are slash-separated and
// relative to Root; absolute or escaping paths are treated as absent.
// Implementations must be safe for concurrent use.
type Reader interface {
	Root() string
	Exists(rel string) bool
	IsDir(rel string) bool
	// Glob returns up to limit matches of a doublestar pattern, sorted.
	// limit <= 0 means unlimited.
	Glob(ctx context.Context, pattern string, limit int) []string
	// ReadText returns at most maxBytes of the file.
	ReadText(rel string, maxBytes int) (string, bool)
	// FirstContaining returns the first of at most maxFiles files matching pattern
	// whose content contains any of the markers.
	FirstContaining(ctx context.Context, pattern string, markers []string, maxFiles int) (string, bool)
}

// Options configures an OSReader
type Options struct {
	// Ignore lists base-name patterns (doublestar syntax) pruned from every walk,
	// e.g. "node_modules" or "*.min.js".
	Ignore []string

	// MaxReadBytes is the default read bound (0 = DefaultMaxReadBytes)
	MaxReadBytes int

	// CacheBytes sizes the shared read cache; 0 disables caching.
	CacheBytes int64
}

// OSReader reads from the local filesystem
type OSReader struct {
	root    string
	ignore  []string
	maxRead int
	cache   *ristretto.Cache[string, []byte]
}

// NewOSReader creates a reader rooted at root. It does not validate root;
// a missing root simply yields negative answers.
func NewOSReader(root string, opts Options) (*OSReader, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}
	for _, pattern := range opts.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}

	r := &OSReader{
		root:    abs,
		ignore:  append([]string(nil), opts.Ignore...),
		maxRead: opts.MaxReadBytes,
	}
	if r.maxRead <= 0 {
		r.maxRead = DefaultMaxReadBytes
	}

	if opts.CacheBytes > 0 {
		counters := opts.CacheBytes / 100 * 10
		if counters < 1000 {
			counters = 1000
		}
		c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
			NumCounters: counters,
			MaxCost:     opts.CacheBytes,
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create read cache: %w", err)
		}
		r.cache = c
	}
	return r, nil
}

// Close releases the read cache
func (r *OSReader) Close() {
	if r.cache != nil {
		r.cache.Close()
	}
}

// Root returns the absolute workspace root
func (r *OSReader) Root() string {
	return r.root
}

// abs maps a relative slash path onto the filesystem. Paths that are absolute
// or escape the root are rejected.
func (r *OSReader) abs(rel string) (string, bool) {
	if rel == "" || rel == "." {
		return r.root, true
	}
	local := filepath.FromSlash(rel)
	if !filepath.IsLocal(local) {
		return "", false
	}
	return filepath.Join(r.root, local), true
}

func (r *OSReader) Exists(rel string) bool {
	p, ok := r.abs(rel)
	if !ok {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}

func (r *OSReader) IsDir(rel string) bool {
	p, ok := r.abs(rel)
	if !ok {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

var errLimit = errors.New("glob limit reached")

func (r *OSReader) Glob(ctx context.Context, pattern string, limit int) []string {
	pattern = strings.TrimPrefix(pattern, "./")
	if !doublestar.ValidatePattern(pattern) {
		return nil
	}

	base, _ := doublestar.SplitPattern(pattern)
	start, ok := r.abs(base)
	if !ok {
		return nil
	}

	// Without ** a pattern cannot match deeper than its own segment count
	maxDepth := -1
	if !strings.Contains(pattern, "**") {
		maxDepth = strings.Count(pattern, "/") + 1
	}

	var matches []string
	err := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal
			if d != nil && d.IsDir() && p != start {
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		relPath, err := filepath.Rel(r.root, p)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if p != start && r.isIgnored(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if maxDepth > 0 && p != r.root && strings.Count(relPath, "/")+1 >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if matched, _ := doublestar.Match(pattern, relPath); matched {
			matches = append(matches, relPath)
			if limit > 0 && len(matches) >= limit {
				return errLimit
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimit) {
		// Cancelled walks report nothing rather than a partial view
		return nil
	}

	sort.Strings(matches)
	return matches
}

func (r *OSReader) isIgnored(name string) bool {
	for _, pattern := range r.ignore {
		if matched, _ := doublestar.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

func (r *OSReader) ReadText(rel string, maxBytes int) (string, bool) {
	if maxBytes <= 0 {
		maxBytes = r.maxRead
	}
	p, ok := r.abs(rel)
	if !ok {
		return "", false
	}

	key := path.Clean(rel) + "#" + strconv.Itoa(maxBytes)
	if r.cache != nil {
		if data, found := r.cache.Get(key); found {
			return string(data), true
		}
	}

	f, err := os.Open(p)
	if err != nil {
		return "", false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return "", false
	}

	data, err := io.ReadAll(io.LimitReader(f, int64(maxBytes)))
	if err != nil {
		return "", false
	}

	if r.cache != nil {
		r.cache.Set(key, data, int64(len(data)))
	}
	return string(data), true
}

func (r *OSReader) FirstContaining(ctx context.Context, pattern string, markers []string, maxFiles int) (string, bool) {
	if len(markers) == 0 {
		return "", false
	}
	for _, file := range r.Glob(ctx, pattern, maxFiles) {
		if ctx.Err() != nil {
			return "", false
		}
		content, ok := r.ReadText(file, 0)
		if !ok {
			continue
		}
		if ContainsAny(content, markers) {
			return file, true
		}
	}
	return "", false
}

// ContainsAny reports whether s contains any of the markers.
func ContainsAny(s string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(s, m) {
			return true
		}
	}
	return false
}

var _ Reader = (*OSReader)(nil)
