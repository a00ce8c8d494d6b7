package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// envelopeKey holds the sealed properties of a stored event.
const envelopeKey = "__encrypted__"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new events.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key cannot open an event.
	// This enables key rotation without rewriting the audit trail.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.EventStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals event properties with AES-GCM.
// Ids, timestamps and contact references stay readable so the trail can still be queried.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.EventStore) ports.EventStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Append(ctx context.Context, event *domain.Event) error {
	plainText, err := json.Marshal(event.Properties)
	if err != nil {
		return fmt.Errorf("failed to marshal event properties: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt event properties: %w", err)
	}

	sealed := *event
	sealed.Properties = map[string]any{
		envelopeKey: base64.StdEncoding.EncodeToString(ciphertext),
	}
	return m.next.Append(ctx, &sealed)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]*domain.Event, error) {
	events, err := m.next.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Event, 0, len(events))
	for _, e := range events {
		opened, err := m.open(e)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", e.ID, err)
		}
		out = append(out, opened)
	}
	return out, nil
}

func (m *encryptionMiddleware) open(e *domain.Event) (*domain.Event, error) {
	encoded, ok := e.Properties[envelopeKey].(string)
	if !ok {
		return nil, errors.New("event is missing encrypted data envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt event properties: %w", err)
	}

	var props map[string]any
	if err := json.Unmarshal(plainText, &props); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted properties: %w", err)
	}

	opened := *e
	opened.Properties = props
	return &opened, nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
