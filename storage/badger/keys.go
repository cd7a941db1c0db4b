package badger

// Scalars and hashes live under distinct prefixes so a composite key can
// hold either kind, as in Redis, without the two colliding.
const (
	scalarPrefix = "s:"
	hashPrefix   = "h:"
)

// makeScalarKey generates the internal key for a scalar stored at key.
func makeScalarKey(key string) []byte {
	return makePrefixedKey(scalarPrefix, key)
}

// makeHashKey generates the internal key for a hash stored at key.
func makeHashKey(key string) []byte {
	return makePrefixedKey(hashPrefix, key)
}

func makePrefixedKey(prefix, key string) []byte {
	buf := make([]byte, len(prefix)+len(key))
	offset := copy(buf, prefix)
	copy(buf[offset:], key)
	return buf
}
