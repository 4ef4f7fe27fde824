package meshcore

import "crypto/sha256"

// DeriveChannelSecret computes the 16-byte secret for a hashtag channel:
// the first 16 bytes of SHA256(name). This is the one cryptographic
// operation in scope for this client (spec.md §1): it is part of a wire
// operation (ensuring/creating a channel), not identity management.
func DeriveChannelSecret(name string) [16]byte {
	sum := sha256.Sum256([]byte(name))
	var secret [16]byte
	copy(secret[:], sum[:16])
	return secret
}

// IsHashtagChannel reports whether name identifies a hashtag channel
// (secret derived from the name) rather than a user-supplied key.
func IsHashtagChannel(name string) bool {
	return len(name) > 0 && name[0] == '#'
}
