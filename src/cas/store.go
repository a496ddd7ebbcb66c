package cas

// Store is an immutable key-value store where keys are content addresses.
// There is no update or delete; changes are modelled by adding new content
// that references old addresses.
type Store interface {
	// Add stores the content of a. Adding identical content again is a no-op.
	Add(a Addressable) error

	// Contains reports whether anything is stored at the address.
	Contains(address Address) (bool, error)

	// Fetch returns the content stored at the address, or a KeyNotFound
	// StoreErr.
	Fetch(address Address) (Content, error)

	// Close releases the underlying resources.
	Close() error
}
