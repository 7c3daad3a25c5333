package encryption

import (
	"context"

	sdkutil "github.com/TBD54566975/ssi-sdk/util"
	"github.com/pkg/errors"

	"github.com/janskor-cz/identuslabel-sub001/internal/util"
)

const keyLen = 32

// Encrypter is the interface for any encrypter implementation
type Encrypter interface {
	Encrypt(ctx context.Context, plaintext, contextData []byte) ([]byte, error)
}

// Decrypter is the interface for any decrypter implementation
type Decrypter interface {
	// Decrypt decrypts ciphertext. The second parameter may be treated as associated data
	// for AEAD (as abstracted in https://datatracker.ietf.org/doc/html/rfc5116)
	Decrypt(ctx context.Context, ciphertext, contextData []byte) ([]byte, error)
}

// KeyResolver provides the symmetric key to encrypt or decrypt with
type KeyResolver func(ctx context.Context) ([]byte, error)

type XChaCha20Poly1305Encrypter struct {
	keyResolver KeyResolver
}

func NewXChaCha20Poly1305EncrypterWithKey(key []byte) *XChaCha20Poly1305Encrypter {
	return &XChaCha20Poly1305Encrypter{func(ctx context.Context) ([]byte, error) {
		return key, nil
	}}
}

func NewXChaCha20Poly1305EncrypterWithKeyResolver(resolver KeyResolver) *XChaCha20Poly1305Encrypter {
	return &XChaCha20Poly1305Encrypter{resolver}
}

func (k XChaCha20Poly1305Encrypter) Encrypt(ctx context.Context, plaintext, _ []byte) ([]byte, error) {
	key, err := k.keyResolver(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "resolving key")
	}
	encrypted, err := util.XChaCha20Poly1305Encrypt(key, plaintext)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not encrypt data")
	}
	return encrypted, nil
}

func (k XChaCha20Poly1305Encrypter) Decrypt(ctx context.Context, ciphertext, _ []byte) ([]byte, error) {
	key, err := k.keyResolver(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "resolving key")
	}
	decrypted, err := util.XChaCha20Poly1305Decrypt(key, ciphertext)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not decrypt data")
	}
	return decrypted, nil
}

// DeriveKey derives a symmetric key from a password using argon2id with the given salt.
// The same password and salt always derive the same key, so previously written data
// stays readable across restarts.
func DeriveKey(password string, salt []byte) ([]byte, error) {
	key, err := util.Argon2KeyGen(password, salt, keyLen)
	if err != nil {
		return nil, errors.Wrap(err, "deriving storage encryption key")
	}
	return key, nil
}
