package crypto

// Secret wraps a byte slice holding key material so call sites make the
// sensitivity explicit and zeroing happens uniformly, generalizing the
// teacher's ad hoc Wipe(slice) calls into a single owned type.
type Secret []byte

// NewSecret copies b into a fresh Secret; the caller still owns b.
func NewSecret(b []byte) Secret {
	s := make(Secret, len(b))
	copy(s, b)
	return s
}

// Wipe zeroes the secret's backing array in place.
func (s Secret) Wipe() {
	Wipe(s)
}

// Bytes returns the underlying slice. Callers must not retain it past the
// Secret's lifetime without copying.
func (s Secret) Bytes() []byte { return s }
