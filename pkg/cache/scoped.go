package cache

// ScopedKeyer wraps a Keyer with a prefix so separate projects get
// separate cache namespaces. The viewer server scopes keys per project
// directory; CLI runs use the default keyer directly.
//
// Example usage:
//
//	projectKeyer := NewScopedKeyer(NewDefaultKeyer(), "project:"+hash[:12]+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// StateKey generates a prefixed key for a fetched state document.
func (k *ScopedKeyer) StateKey(projectHash string, opts StateKeyOpts) string {
	return k.prefix + k.inner.StateKey(projectHash, opts)
}

// LayoutKey generates a prefixed key for a computed layout.
func (k *ScopedKeyer) LayoutKey(projectHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(projectHash, opts)
}

// ArtifactKey generates a prefixed key for a rendered artifact.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
