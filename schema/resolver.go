package schema

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/godsrf/dsrf"
	"github.com/godsrf/dsrf/cache"
	"github.com/godsrf/dsrf/specs"
)

// ErrNotFound is returned when a resolver has no schema for the requested
// version and profile.
var ErrNotFound = errors.New("schema not found")

// Resolver locates the compiled schema for a (version, profile) pair.
type Resolver interface {
	Resolve(version dsrf.Version, profile dsrf.Profile) (*Schema, error)
}

// FSResolver reads schema documents from a file system laid out like the
// embedded specs: <version>/<profile>.yaml with the profile lower-cased.
type FSResolver struct {
	fsys fs.FS
	opts []LoaderOption
}

// NewFSResolver creates a resolver over fsys.
func NewFSResolver(fsys fs.FS, opts ...LoaderOption) *FSResolver {
	return &FSResolver{fsys: fsys, opts: opts}
}

// NewDirResolver creates a resolver over a host directory.
func NewDirResolver(dir string, opts ...LoaderOption) *FSResolver {
	return NewFSResolver(os.DirFS(dir), opts...)
}

// Resolve implements Resolver. A missing document is ErrNotFound; a present
// but broken document is a hard error.
func (r *FSResolver) Resolve(version dsrf.Version, profile dsrf.Profile) (*Schema, error) {
	path := specs.Path(version, profile)
	if _, err := fs.Stat(r.fsys, path); err != nil {
		return nil, ErrNotFound
	}
	return LoadFS(r.fsys, path, r.opts...)
}

// Chain tries several resolvers in order; the first hit wins. ErrNotFound
// moves on to the next resolver, any other error stops the chain.
type Chain struct {
	resolvers []Resolver
}

// NewChain builds a resolver chain.
func NewChain(resolvers ...Resolver) *Chain {
	return &Chain{resolvers: resolvers}
}

// Add appends a resolver to the chain.
func (c *Chain) Add(r Resolver) {
	c.resolvers = append(c.resolvers, r)
}

// Prepend inserts a resolver at the front of the chain, ahead of the
// existing ones.
func (c *Chain) Prepend(r Resolver) {
	c.resolvers = append([]Resolver{r}, c.resolvers...)
}

// Resolve implements Resolver.
func (c *Chain) Resolve(version dsrf.Version, profile dsrf.Profile) (*Schema, error) {
	for _, r := range c.resolvers {
		s, err := r.Resolve(version, profile)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// cacheKey identifies a compiled schema.
type cacheKey struct {
	version dsrf.Version
	profile dsrf.Profile
}

// CachingResolver wraps a resolver with an LRU cache of compiled schemas.
type CachingResolver struct {
	resolver Resolver
	cache    *cache.Cache[cacheKey, *Schema]
}

// NewCachingResolver creates a caching wrapper holding at most capacity
// compiled schemas.
func NewCachingResolver(resolver Resolver, capacity int) *CachingResolver {
	return &CachingResolver{
		resolver: resolver,
		cache:    cache.New[cacheKey, *Schema](capacity),
	}
}

// Resolve implements Resolver. Failed resolutions are not cached; the next
// call retries.
func (c *CachingResolver) Resolve(version dsrf.Version, profile dsrf.Profile) (*Schema, error) {
	return c.cache.GetOrLoad(cacheKey{version, profile}, func() (*Schema, error) {
		return c.resolver.Resolve(version, profile)
	})
}

// Stats exposes the schema cache counters.
func (c *CachingResolver) Stats() cache.Stats {
	return c.cache.Stats()
}

var (
	defaultResolver     Resolver
	defaultResolverOnce sync.Once
)

// Default returns the process-wide resolver: a caching resolver over the
// embedded schema documents.
func Default() Resolver {
	defaultResolverOnce.Do(func() {
		defaultResolver = NewCachingResolver(NewFSResolver(specs.FS()), 8)
	})
	return defaultResolver
}

// Load resolves a schema through the default resolver.
func Load(version dsrf.Version, profile dsrf.Profile) (*Schema, error) {
	return Default().Resolve(version, profile)
}
