package common

import "fmt"

// StoreErrType enumerates the ways a storage lookup or write can fail.
type StoreErrType uint32

const (
	// KeyNotFound is returned when nothing is stored under the key.
	KeyNotFound StoreErrType = iota
	// KeyAlreadyExists is returned when a different value is already stored
	// under an immutable key.
	KeyAlreadyExists
	// Empty is returned when a collection holds no items.
	Empty
	// Corrupted is returned when stored bytes cannot be decoded.
	Corrupted
)

// StoreErr is the error type returned by the cas, eav and dht stores. It
// records the kind of data that was accessed and the key that was used.
type StoreErr struct {
	dataType string
	errType  StoreErrType
	key      string
}

// NewStoreErr ...
func NewStoreErr(dataType string, errType StoreErrType, key string) StoreErr {
	return StoreErr{
		dataType: dataType,
		errType:  errType,
		key:      key,
	}
}

// Error ...
func (e StoreErr) Error() string {
	m := ""
	switch e.errType {
	case KeyNotFound:
		m = "Not Found"
	case KeyAlreadyExists:
		m = "Key Already Exists"
	case Empty:
		m = "Empty"
	case Corrupted:
		m = "Corrupted"
	}

	return fmt.Sprintf("%s, %s, %s", e.dataType, e.key, m)
}

// IsStore checks that an error is of type StoreErr and that it's code matches
// the provided StoreErr code.
func IsStore(err error, t StoreErrType) bool {
	storeErr, ok := err.(StoreErr)
	return ok && storeErr.errType == t
}
