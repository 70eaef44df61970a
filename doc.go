// Package trieidx provides an embedded prefix search index for tabular
// records.
//
// An Engine indexes selected fields of a dataset in a character trie and
// answers ranked prefix and substring queries. The index can be exported to a
// path-compressed snapshot, which the engine persists in a tiered, compressed
// cache so later loads of the same dataset skip the build.
//
// # Quick Start
//
//	ctx := context.Background()
//	eng, _ := trieidx.New()
//	defer eng.Close()
//
//	_, err := eng.Load(ctx, trieidx.Dataset{
//	    ID:      "orgs",
//	    Fields:  []string{"name", "city"},
//	    Records: records,
//	})
//
//	results, _ := eng.Search(ctx, "ber", 10)
//	for _, r := range results {
//	    fmt.Println(r.ID, r.Score, r.Item["name"])
//	}
//
// # Ranking
//
// Values are normalized to lower case with collapsed whitespace. Each value
// is indexed as a whole and per token. A query scores 1.0 for an exact term,
// between 0.9 and 1.0 for terms it is a prefix of (shorter extensions rank
// higher), and 0.7 for terms that merely contain it. Every item appears once,
// with its best score.
//
// # Caching
//
// With WithCache, Load first looks up CacheKey(ID, Fields). A hit is imported
// instead of rebuilding; a miss, a corrupted entry or WithForceRefresh builds
// from records and writes the new export back:
//
//	fallback := blobstore.NewLocalStore("/var/cache/trieidx")
//	primary, _ := sqlstore.Open("/var/cache/trieidx/cache.db")
//	mgr := cache.NewManager(primary, fallback)
//	eng, _ := trieidx.New(trieidx.WithCache(mgr))
//
// # Readiness
//
// Search distinguishes three outcomes: an empty slice means nothing matched,
// ErrNotReady means no index has been loaded, and ErrLoadFailed means the last
// load failed. A load builds a complete index before swapping it in, so
// concurrent searches never see a partial index.
package trieidx
