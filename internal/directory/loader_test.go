package directory

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testTheme = `{
	"colorDark": "#1e40af",
	"gradientFrom": "blue-500",
	"gradientTo": "indigo-600",
	"bgGradient": "from-blue-50 to-indigo-100",
	"textColor": "blue-600",
	"buttonColor": "blue-600",
	"buttonHover": "blue-700"
}`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"shared.json": {Data: []byte(`{
			"addresses": {
				"emmenbruecke": {"street": "Gerliswilstrasse 1", "city": "Emmenbrücke", "postalCode": "6020", "country": "Schweiz"}
			},
			"tiles": ["photos", "recipes", "broken"]
		}`)},
		"translations.json": {Data: []byte(`{"de": {"phone": "Telefon"}, "en": {"phone": "Phone"}}`)},
		"stefan.json": {Data: []byte(`{
			"id": "stefan", "displayOrder": 2, "fullName": "Stefan Müller",
			"firstName": "Stefan", "lastName": "Müller", "initial": "S",
			"theme": ` + testTheme + `,
			"countries": [
				{"code": "ch", "name": "Schweiz", "phone": "+41 79 123 45 67", "email": "stefan@example.ch", "address": "@shared/emmenbruecke"},
				{"code": "th", "name": "Thailand", "flag": "🏝", "phone": "+66 81 234 5678",
				 "address": {"street": "99/1 Moo 3", "amphoe": "Bang Lamung", "city": "Chonburi", "postalCode": "20150", "country": "Thailand"}}
			]
		}`)},
		"elisabeth.json": {Data: []byte(`{
			"id": "elisabeth", "displayOrder": 1, "fullName": "Elisabeth Müller",
			"firstName": "Elisabeth", "lastName": "Müller", "initial": "E",
			"theme": ` + testTheme + `,
			"countries": [{"code": "ch", "name": "Schweiz", "address": "@shared/emmenbruecke"}]
		}`)},
		"rolf.json": {Data: []byte(`{
			"id": "rolf", "displayOrder": 2, "fullName": "Rolf Müller",
			"firstName": "Rolf", "lastName": "Müller", "initial": "R",
			"theme": ` + testTheme + `,
			"countries": [{"code": "ch", "name": "Schweiz", "address": "@shared/nowhere"}]
		}`)},
		"badtheme.json": {Data: []byte(`{
			"id": "badtheme", "displayOrder": 9, "fullName": "Bad Theme",
			"theme": {"colorDark": "#000000", "gradientFrom": "blurple-500", "gradientTo": "blue-600",
				"bgGradient": "from-blue-50 to-blue-100", "textColor": "blue-600", "buttonColor": "blue-600", "buttonHover": "blue-700"},
			"countries": []
		}`)},
		"broken.json":        {Data: []byte(`{"id": `)},
		"tiles/photos.json":  {Data: []byte(`{"id": "photos", "displayOrder": 2, "title": {"de": "Fotos", "en": "Photos"}, "icon": "📷", "theme": "rose-500", "url": "https://photos.example.ch", "type": "external"}`)},
		"tiles/recipes.json": {Data: []byte(`{"id": "recipes", "displayOrder": 1, "title": "Rezepte", "description": {"de": "Familienrezepte"}, "icon": "🍲", "url": "/pages/recipes"}`)},
	}
}

type countingSource struct {
	inner Source
	mu    sync.Mutex
	calls map[string]int
	gate  chan struct{}
}

func newCountingSource(inner Source) *countingSource {
	return &countingSource{inner: inner, calls: map[string]int{}}
}

func (s *countingSource) Open(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	s.calls[name]++
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return s.inner.Open(ctx, name)
}

func (s *countingSource) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func TestLoadPersonResolvesSharedAddress(t *testing.T) {
	loader := NewLoader(NewFSSource(testFS()))

	person, err := loader.LoadPerson(context.Background(), "stefan")
	require.NoError(t, err)

	ch, ok := person.Country("ch")
	require.True(t, ok)
	require.NotNil(t, ch.Address.Resolved())
	want := Address{Street: "Gerliswilstrasse 1", City: "Emmenbrücke", PostalCode: "6020", Country: "Schweiz"}
	if diff := cmp.Diff(want, *ch.Address.Resolved()); diff != "" {
		t.Fatalf("resolved address mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "🇨🇭", ch.Flag)

	th, _ := person.Country("th")
	require.Equal(t, "🏝", th.Flag, "explicit flags are kept")
}

func TestLoadPersonReturnsCopies(t *testing.T) {
	loader := NewLoader(NewFSSource(testFS()))
	ctx := context.Background()

	first, err := loader.LoadPerson(ctx, "stefan")
	require.NoError(t, err)
	first.FullName = "changed"
	first.Countries[0].Address.Resolved().Street = "changed"

	second, err := loader.LoadPerson(ctx, "stefan")
	require.NoError(t, err)
	require.Equal(t, "Stefan Müller", second.FullName)
	require.Equal(t, "Gerliswilstrasse 1", second.Countries[0].Address.Resolved().Street)
}

func TestLoadPersonCachesAndDeduplicates(t *testing.T) {
	src := newCountingSource(NewFSSource(testFS()))
	src.gate = make(chan struct{})
	loader := NewLoader(src)

	const callers = 8
	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := loader.LoadPerson(context.Background(), "stefan"); err != nil {
				failures.Add(1)
			}
		}()
	}
	// Hold the first fetch open until it is in flight.
	for src.count("stefan.json") == 0 {
		runtime.Gosched()
	}
	close(src.gate)
	wg.Wait()

	require.Zero(t, failures.Load())
	require.Equal(t, 1, src.count("stefan.json"))
	require.Equal(t, 1, src.count("shared.json"))

	_, err := loader.LoadPerson(context.Background(), "stefan")
	require.NoError(t, err)
	require.Equal(t, 1, src.count("stefan.json"))
}

func TestLoadPersonSurvivesCancelledPeer(t *testing.T) {
	src := newCountingSource(NewFSSource(testFS()))
	src.gate = make(chan struct{})
	loader := NewLoader(src)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := loader.LoadPerson(first, "stefan")
		firstErr <- err
	}()
	for src.count("stefan.json") == 0 {
		runtime.Gosched()
	}

	secondErr := make(chan error, 1)
	go func() {
		_, err := loader.LoadPerson(context.Background(), "stefan")
		secondErr <- err
	}()

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(src.gate)
	require.NoError(t, <-secondErr)
	require.Equal(t, 1, src.count("stefan.json"))

	_, ok := loader.CachedPerson("stefan")
	require.True(t, ok, "the shared fetch completes after its starter goes away")
}

func TestLoadPersonErrors(t *testing.T) {
	loader := NewLoader(NewFSSource(testFS()))
	ctx := context.Background()

	_, err := loader.LoadPerson(ctx, "nobody")
	var le *LoadError
	require.ErrorAs(t, err, &le)
	require.Equal(t, "person nobody", le.Resource)
	require.ErrorIs(t, err, ErrNotFound)
	require.True(t, IsNotFound(err))

	_, err = loader.LoadPerson(ctx, "../etc/passwd")
	require.ErrorIs(t, err, ErrInvalidID)
	require.True(t, IsNotFound(err))

	_, err = loader.LoadPerson(ctx, "broken")
	require.ErrorAs(t, err, &le)
	require.False(t, IsNotFound(err))

	_, err = loader.LoadPerson(ctx, "badtheme")
	require.ErrorIs(t, err, ErrInvalidTheme)
	_, cached := loader.CachedPerson("badtheme")
	require.False(t, cached, "failures are not cached")
}

func TestUnresolvedReferenceWarnsByDefault(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	loader := NewLoader(NewFSSource(testFS()), WithLogger(zap.New(core)))

	person, err := loader.LoadPerson(context.Background(), "rolf")
	require.NoError(t, err)
	require.Nil(t, person.Countries[0].Address.Resolved())
	require.Equal(t, "@shared/nowhere", person.Countries[0].Address.Ref)

	entries := logs.FilterMessage("unresolved address reference").All()
	require.Len(t, entries, 1)
	require.Equal(t, "rolf", entries[0].ContextMap()["person"])
}

func TestUnresolvedReferenceFailsInStrictMode(t *testing.T) {
	loader := NewLoader(NewFSSource(testFS()), WithStrictReferences(true))

	_, err := loader.LoadPerson(context.Background(), "rolf")
	require.ErrorIs(t, err, ErrUnresolvedReference)

	_, err = loader.LoadPerson(context.Background(), "stefan")
	require.NoError(t, err)
}

func TestLoadPersonWithoutSharedKeepsInlineAddresses(t *testing.T) {
	fsys := testFS()
	delete(fsys, "shared.json")
	src := newCountingSource(NewFSSource(fsys))
	loader := NewLoader(src)

	person, err := loader.LoadPerson(context.Background(), "stefan")
	require.NoError(t, err)
	require.Nil(t, person.Countries[0].Address.Resolved())
	require.NotNil(t, person.Countries[1].Address.Resolved())

	_, cached := loader.CachedPerson("stefan")
	require.False(t, cached, "partially resolved records are refetched later")
}

func TestLoadAllPeopleSortsAndDropsFailures(t *testing.T) {
	loader := NewLoader(NewFSSource(testFS()),
		WithManifest([]string{"stefan", "missing", "rolf", "broken", "elisabeth", "badtheme"}))

	people, err := loader.LoadAllPeople(context.Background())
	require.NoError(t, err)

	ids := make([]string, 0, len(people))
	for _, p := range people {
		require.NotNil(t, p)
		ids = append(ids, p.ID)
	}
	require.Equal(t, []string{"elisabeth", "stefan", "rolf"}, ids, "displayOrder ascending, ties in manifest order")

	cachedIDs := []string{}
	for _, p := range loader.CachedPeople() {
		cachedIDs = append(cachedIDs, p.ID)
	}
	require.Equal(t, []string{"elisabeth", "rolf", "stefan"}, cachedIDs)
}

func TestLoadAllPeopleCancelled(t *testing.T) {
	loader := NewLoader(NewFSSource(testFS()), WithManifest([]string{"stefan"}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loader.LoadAllPeople(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoadAllTiles(t *testing.T) {
	loader := NewLoader(NewFSSource(testFS()))

	tiles, err := loader.LoadAllTiles(context.Background())
	require.NoError(t, err)
	require.Len(t, tiles, 2)
	require.Equal(t, "recipes", tiles[0].ID)
	require.Equal(t, "photos", tiles[1].ID)

	require.Equal(t, "Rezepte", tiles[0].Title.Get("th", "en"))
	require.Equal(t, "Familienrezepte", tiles[0].Description.Get("en", "de"))
	require.Equal(t, "Photos", tiles[1].Title.Get("en", "de"))
	require.True(t, tiles[1].External())
	require.False(t, tiles[0].External())
}

func TestLoadTranslationsAndShared(t *testing.T) {
	loader := NewLoader(NewFSSource(testFS()))
	ctx := context.Background()

	tr, err := loader.LoadTranslations(ctx)
	require.NoError(t, err)
	require.Equal(t, "Telefon", tr["de"]["phone"])
	tr["de"]["phone"] = "mutated"

	again, err := loader.LoadTranslations(ctx)
	require.NoError(t, err)
	require.Equal(t, "Telefon", again["de"]["phone"])

	shared, err := loader.LoadShared(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"photos", "recipes", "broken"}, shared.Tiles)
}

func TestLoadTranslationsMissing(t *testing.T) {
	fsys := testFS()
	delete(fsys, "translations.json")
	loader := NewLoader(NewFSSource(fsys))

	_, err := loader.LoadTranslations(context.Background())
	require.True(t, errors.Is(err, ErrNotFound))
}
