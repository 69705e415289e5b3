package storage

// OpenInMemory opens a migrated private in-memory database. Other packages
// use it in their tests.
func OpenInMemory() (*DB, error) {
	return Open(DefaultConfig(MemoryPath))
}
