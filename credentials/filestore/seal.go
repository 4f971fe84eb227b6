package filestore

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32

	// scrypt parameters; derivation runs once per salt and is cached.
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var errSealedOpen = errors.New("sealed credential file could not be opened")

// sealer encrypts the store contents with secretbox.
// Format: [salt (16 bytes)][nonce (24 bytes)][secretbox output]
type sealer struct {
	passphrase []byte

	mu   sync.Mutex
	salt []byte
	key  *[keySize]byte
}

func newSealer(passphrase []byte) *sealer {
	return &sealer{passphrase: passphrase}
}

func (s *sealer) seal(plain []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key == nil {
		salt := make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
		if err := s.deriveLocked(salt); err != nil {
			return nil, err
		}
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := make([]byte, 0, saltSize+nonceSize+len(plain)+secretbox.Overhead)
	out = append(out, s.salt...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plain, &nonce, s.key), nil
}

func (s *sealer) open(sealed []byte) ([]byte, error) {
	if len(sealed) < saltSize+nonceSize+secretbox.Overhead {
		return nil, errSealedOpen
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	salt := sealed[:saltSize]
	if s.key == nil || !bytes.Equal(salt, s.salt) {
		if err := s.deriveLocked(salt); err != nil {
			return nil, err
		}
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[saltSize:saltSize+nonceSize])
	plain, ok := secretbox.Open(nil, sealed[saltSize+nonceSize:], &nonce, s.key)
	if !ok {
		return nil, errSealedOpen
	}
	return plain, nil
}

func (s *sealer) deriveLocked(salt []byte) error {
	derived, err := scrypt.Key(s.passphrase, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return fmt.Errorf("failed to derive key: %w", err)
	}
	var key [keySize]byte
	copy(key[:], derived)
	s.key = &key
	s.salt = append([]byte(nil), salt...)
	return nil
}
