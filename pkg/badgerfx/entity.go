package badgerfx

// Entity is a value that can be persisted by Repository.
//
// StorageKey is the primary key. StorageIndexes are secondary keys whose
// value is the primary key; they are rewritten on every Write.
type Entity interface {
	StorageKey() string
	StorageIndexes() []string

	MarshalStorage() ([]byte, error)
	UnmarshalStorage(data []byte) error
}
