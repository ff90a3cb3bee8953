package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	sharedDocument       = "shared.json"
	translationsDocument = "translations.json"
	batchConcurrency     = 8
	fetchTimeout         = 30 * time.Second
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Loader fetches person, shared, tile and translation documents from a Source
// and keeps them for the lifetime of the process. Every key is fetched at most
// once at a time; concurrent misses share the same fetch. Failures are not cached.
type Loader struct {
	src      Source
	logger   *zap.Logger
	manifest []string
	strict   bool

	group singleflight.Group

	mu           sync.RWMutex
	people       map[string]*Person
	tiles        map[string]Tile
	shared       *SharedData
	translations Translations
}

// Option customises a Loader.
type Option func(*Loader)

// WithLogger sets the logger for warnings about dropped or unresolved records.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithManifest sets the ids LoadAllPeople loads, in tie-break order.
func WithManifest(ids []string) Option {
	return func(l *Loader) {
		l.manifest = append([]string(nil), ids...)
	}
}

// WithStrictReferences makes an unresolved @shared/ address a load failure.
func WithStrictReferences(strict bool) Option {
	return func(l *Loader) {
		l.strict = strict
	}
}

// NewLoader builds a Loader reading from src.
func NewLoader(src Source, opts ...Option) *Loader {
	l := &Loader{
		src:    src,
		logger: zap.NewNop(),
		people: make(map[string]*Person),
		tiles:  make(map[string]Tile),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Manifest returns the configured person ids.
func (l *Loader) Manifest() []string {
	return append([]string(nil), l.manifest...)
}

// LoadPerson returns the resolved person with the given id. The returned value
// is a copy and may be modified by the caller.
func (l *Loader) LoadPerson(ctx context.Context, id string) (*Person, error) {
	resource := "person " + id
	if !idPattern.MatchString(id) {
		return nil, &LoadError{Resource: resource, Err: ErrInvalidID}
	}
	if p, ok := l.CachedPerson(id); ok {
		return p, nil
	}

	v, err := l.share(ctx, "person:"+id, resource, func(ctx context.Context) (any, error) {
		if p, ok := l.cachedPerson(id); ok {
			return p, nil
		}
		p, complete, err := l.fetchPerson(ctx, id)
		if err != nil {
			return nil, loadErr(resource, err)
		}
		if complete {
			l.mu.Lock()
			l.people[id] = p
			l.mu.Unlock()
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Person).Clone(), nil
}

// fetchPerson reports complete=false when references could not be checked
// because shared.json was unavailable; such results are not cached.
func (l *Loader) fetchPerson(ctx context.Context, id string) (*Person, bool, error) {
	var raw Person
	if err := l.decode(ctx, id+".json", &raw); err != nil {
		return nil, false, err
	}
	switch {
	case raw.ID == "":
		raw.ID = id
	case raw.ID != id:
		l.logger.Warn("person id does not match document name", zap.String("document", id), zap.String("id", raw.ID))
		raw.ID = id
	}
	if err := raw.Theme.Validate(); err != nil {
		return nil, false, err
	}

	complete := true
	shared, err := l.sharedData(ctx)
	if err != nil {
		// Inline addresses still work without shared.json; references stay unresolved.
		l.logger.Warn("shared data unavailable, references left unresolved", zap.String("person", id), zap.Error(err))
		shared = &SharedData{}
		complete = false
	}
	resolved, unresolved := ResolveAddressReferences(&raw, *shared, l.logger)
	if l.strict && len(unresolved) > 0 {
		return nil, false, fmt.Errorf("%w: %s", ErrUnresolvedReference, strings.Join(unresolved, ", "))
	}
	return resolved, complete || len(unresolved) == 0, nil
}

// LoadAllPeople loads every manifest entry concurrently. Entries that fail to
// load are logged and dropped. The result is sorted by DisplayOrder, with ties
// kept in manifest order. The error is non-nil only when ctx is done.
func (l *Loader) LoadAllPeople(ctx context.Context) ([]*Person, error) {
	results := make([]*Person, len(l.manifest))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, id := range l.manifest {
		g.Go(func() error {
			p, err := l.LoadPerson(gctx, id)
			if err != nil {
				l.logger.Error("failed to load person", zap.String("person", id), zap.Error(err))
				return nil
			}
			results[i] = p
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	people := make([]*Person, 0, len(results))
	for _, p := range results {
		if p != nil {
			people = append(people, p)
		}
	}
	sort.SliceStable(people, func(i, j int) bool {
		return people[i].DisplayOrder < people[j].DisplayOrder
	})
	return people, nil
}

// LoadShared returns shared.json.
func (l *Loader) LoadShared(ctx context.Context) (SharedData, error) {
	shared, err := l.sharedData(ctx)
	if err != nil {
		return SharedData{}, err
	}
	return shared.Clone(), nil
}

func (l *Loader) sharedData(ctx context.Context) (*SharedData, error) {
	l.mu.RLock()
	cached := l.shared
	l.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err := l.share(ctx, "shared", "shared", func(ctx context.Context) (any, error) {
		l.mu.RLock()
		cached := l.shared
		l.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}
		var shared SharedData
		if err := l.decode(ctx, sharedDocument, &shared); err != nil {
			return nil, loadErr("shared", err)
		}
		l.mu.Lock()
		l.shared = &shared
		l.mu.Unlock()
		return &shared, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*SharedData), nil
}

// LoadTranslations returns translations.json.
func (l *Loader) LoadTranslations(ctx context.Context) (Translations, error) {
	l.mu.RLock()
	cached := l.translations
	l.mu.RUnlock()
	if cached != nil {
		return cached.Clone(), nil
	}

	v, err := l.share(ctx, "translations", "translations", func(ctx context.Context) (any, error) {
		l.mu.RLock()
		cached := l.translations
		l.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}
		var t Translations
		if err := l.decode(ctx, translationsDocument, &t); err != nil {
			return nil, loadErr("translations", err)
		}
		if t == nil {
			t = Translations{}
		}
		l.mu.Lock()
		l.translations = t
		l.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Translations).Clone(), nil
}

// LoadAllTiles loads the tiles listed in shared.json concurrently. Failed
// tiles are logged and dropped; the rest are sorted by DisplayOrder.
func (l *Loader) LoadAllTiles(ctx context.Context) ([]Tile, error) {
	shared, err := l.sharedData(ctx)
	if err != nil {
		return nil, err
	}
	ids := shared.Tiles

	results := make([]*Tile, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			t, err := l.loadTile(gctx, id)
			if err != nil {
				l.logger.Error("failed to load tile", zap.String("tile", id), zap.Error(err))
				return nil
			}
			results[i] = &t
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tiles := make([]Tile, 0, len(results))
	for _, t := range results {
		if t != nil {
			tiles = append(tiles, *t)
		}
	}
	sort.SliceStable(tiles, func(i, j int) bool {
		return tiles[i].DisplayOrder < tiles[j].DisplayOrder
	})
	return tiles, nil
}

func (l *Loader) loadTile(ctx context.Context, id string) (Tile, error) {
	resource := "tile " + id
	if !idPattern.MatchString(id) {
		return Tile{}, &LoadError{Resource: resource, Err: ErrInvalidID}
	}
	l.mu.RLock()
	cached, ok := l.tiles[id]
	l.mu.RUnlock()
	if ok {
		return cached.Clone(), nil
	}

	v, err := l.share(ctx, "tile:"+id, resource, func(ctx context.Context) (any, error) {
		var t Tile
		if err := l.decode(ctx, "tiles/"+id+".json", &t); err != nil {
			return nil, loadErr(resource, err)
		}
		if t.ID == "" {
			t.ID = id
		}
		if t.Theme != "" && !ValidColorToken(t.Theme) {
			return nil, loadErr(resource, fmt.Errorf("%w: tile theme %q", ErrInvalidTheme, t.Theme))
		}
		l.mu.Lock()
		l.tiles[id] = t
		l.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return Tile{}, err
	}
	return v.(Tile).Clone(), nil
}

// CachedPerson returns a copy of a previously loaded person without touching the source.
func (l *Loader) CachedPerson(id string) (*Person, bool) {
	p, ok := l.cachedPerson(id)
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

func (l *Loader) cachedPerson(id string) (*Person, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.people[id]
	return p, ok
}

// CachedPeople returns copies of every loaded person sorted by DisplayOrder, then id.
func (l *Loader) CachedPeople() []*Person {
	l.mu.RLock()
	people := make([]*Person, 0, len(l.people))
	for _, p := range l.people {
		people = append(people, p.Clone())
	}
	l.mu.RUnlock()

	sort.Slice(people, func(i, j int) bool {
		if people[i].DisplayOrder != people[j].DisplayOrder {
			return people[i].DisplayOrder < people[j].DisplayOrder
		}
		return people[i].ID < people[j].ID
	})
	return people
}

// share runs fetch once per key for all concurrent callers. The fetch does not
// inherit the cancellation of the caller that started it; each caller stops
// waiting when its own ctx is done.
func (l *Loader) share(ctx context.Context, key, resource string, fetch func(context.Context) (any, error)) (any, error) {
	ch := l.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return fetch(fctx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, loadErr(resource, ctx.Err())
	}
}

func (l *Loader) decode(ctx context.Context, name string, dst any) error {
	data, err := l.src.Open(ctx, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
