package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation — used
// when the registry's cache is shared across multiple authenticated
// usernames and descriptor/DB-auth entries must not cross user boundaries.
//
//	userKeyer := NewScopedKeyer(NewDefaultKeyer(), "user:"+username+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) DescriptorKey(graphName string) string {
	return k.prefix + k.inner.DescriptorKey(graphName)
}

func (k *ScopedKeyer) DBAuthKey(username string) string {
	return k.prefix + k.inner.DBAuthKey(username)
}
