package ports

// PasswordHasher produces salted, verifiable password hashes.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) (bool, error)
}
