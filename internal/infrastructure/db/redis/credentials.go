package redis

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/karunya-foundation/donation-gateway/internal/core/domain"
)

const defaultSessionTTL = 24 * time.Hour

// TokenCipher encrypts upstream bearer tokens before they touch Redis. The
// gateway holds third-party credentials, so they never sit in the store in
// the clear.
type TokenCipher struct {
	key []byte
}

// NewTokenCipher validates the key length for ChaCha20-Poly1305 (32 bytes).
func NewTokenCipher(key []byte) (*TokenCipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("token cipher: key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &TokenCipher{key: append([]byte(nil), key...)}, nil
}

// Seal encrypts plain and returns base64(nonce || ciphertext).
func (c *TokenCipher) Seal(plain string) (string, error) {
	aead, err := chacha20poly1305.New(c.key)
	if err != nil {
		return "", fmt.Errorf("token cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("token cipher: nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (c *TokenCipher) Open(encoded string) (string, error) {
	aead, err := chacha20poly1305.New(c.key)
	if err != nil {
		return "", fmt.Errorf("token cipher: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("token cipher: decode: %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return "", errors.New("token cipher: ciphertext too short")
	}
	plain, err := aead.Open(nil, raw[:aead.NonceSize()], raw[aead.NonceSize():], nil)
	if err != nil {
		return "", fmt.Errorf("token cipher: open: %w", err)
	}
	return string(plain), nil
}

// CredentialRepository is the Redis-backed credential mirror for one gateway
// session. Key layout:
//
//	session:<id>:token  encrypted bearer token (authoritative)
//	session:<id>:user   identity mirror as JSON (informational)
//
// Single-writer (the session store), multi-reader (upstream client, guards).
type CredentialRepository struct {
	client    *redis.Client
	cipher    *TokenCipher
	sessionID string
	ttl       time.Duration
}

func NewCredentialRepository(client *redis.Client, cipher *TokenCipher, sessionID string, ttl time.Duration) *CredentialRepository {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &CredentialRepository{client: client, cipher: cipher, sessionID: sessionID, ttl: ttl}
}

func (r *CredentialRepository) tokenKey() string {
	return fmt.Sprintf("session:%s:token", r.sessionID)
}

func (r *CredentialRepository) userKey() string {
	return fmt.Sprintf("session:%s:user", r.sessionID)
}

func (r *CredentialRepository) Token(ctx context.Context) (string, error) {
	sealed, err := r.client.Get(ctx, r.tokenKey()).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("credentials: read token: %w", err)
	}
	return r.cipher.Open(sealed)
}

func (r *CredentialRepository) SetToken(ctx context.Context, token string) error {
	sealed, err := r.cipher.Seal(token)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.tokenKey(), sealed, r.ttl).Err(); err != nil {
		return fmt.Errorf("credentials: write token: %w", err)
	}
	return nil
}

func (r *CredentialRepository) User(ctx context.Context) (*domain.User, error) {
	raw, err := r.client.Get(ctx, r.userKey()).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("credentials: read user: %w", err)
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("credentials: decode user: %w", err)
	}
	return &user, nil
}

func (r *CredentialRepository) SetUser(ctx context.Context, user *domain.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("credentials: encode user: %w", err)
	}
	if err := r.client.Set(ctx, r.userKey(), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("credentials: write user: %w", err)
	}
	return nil
}

func (r *CredentialRepository) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.tokenKey(), r.userKey()).Err(); err != nil {
		return fmt.Errorf("credentials: clear: %w", err)
	}
	return nil
}
