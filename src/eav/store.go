package eav

// Store is a secondary index of EAVI triples. Triples are only ever added;
// a later triple supersedes an earlier one through LatestByAttribute queries.
type Store interface {
	// Add stores the triple and returns it with the index it was stored
	// under, which is bumped past any index already in use.
	Add(e EAVI) (EAVI, error)

	// Fetch returns the triples matching the query, ordered by index.
	Fetch(q Query) ([]EAVI, error)

	// Close releases the underlying resources.
	Close() error
}
