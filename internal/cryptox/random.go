package cryptox

import "crypto/rand"

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// wipe overwrites b with zeros so key material does not linger in buffers.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
