package eventstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrDecryptionFailed indicates that a personal data field could not be
// decrypted (wrong key, tampered or corrupt ciphertext).
// It is fatal to the operation - a field that fails to decrypt is never
// treated as absent or defaulted
var ErrDecryptionFailed = errors.New("personal data decryption failed")

// Cipher encrypts and decrypts single payload field values
type Cipher interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(ciphertext string) ([]byte, error)
}

// NewAESCipher constructs an AES-GCM Cipher from a 16, 24 or 32 byte key
func NewAESCipher(key []byte) (*AESCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &AESCipher{
		aead: aead,
	}, nil
}

// AESCipher is an AES-GCM Cipher implementation with a random nonce per
// value and base64 transport encoding
type AESCipher struct {
	aead cipher.AEAD
}

// Encrypt encrypts plaintext and returns base64(nonce || ciphertext)
func (c *AESCipher) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())

	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any failure is reported as ErrDecryptionFailed
func (c *AESCipher) Decrypt(ciphertext string) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	if len(sealed) < c.aead.NonceSize() {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}

	nonce, data := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]

	plaintext, err := c.aead.Open(nil, nonce, data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	return plaintext, nil
}

// NewCryptoCodec decorates a codec with transparent field-level encryption.
// On the way out it encrypts exactly the payload fields the registry
// declares as personal data for the event's discriminator; on the way in it
// decrypts them before the event reaches the inner codec.
// All other fields pass through unchanged
func NewCryptoCodec(inner Codec, reg *Registry, c Cipher) *CryptoCodec {
	return &CryptoCodec{
		inner:  inner,
		reg:    reg,
		cipher: c,
	}
}

// CryptoCodec is a Codec decorator which encrypts personal data fields
// at the serialization boundary
type CryptoCodec struct {
	inner  Codec
	reg    *Registry
	cipher Cipher
}

// Encode encodes an outgoing event and encrypts its personal data fields
func (c *CryptoCodec) Encode(evt any) (*EncodedEvt, error) {
	encoded, err := c.inner.Encode(evt)
	if err != nil {
		return nil, err
	}

	fields := c.reg.Personal(encoded.Type)
	if len(fields) == 0 {
		return encoded, nil
	}

	payload, err := unmarshalPayload(encoded.Data)
	if err != nil {
		return nil, err
	}

	for _, field := range fields {
		val, ok := payload[field]
		if !ok {
			continue
		}

		plaintext, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}

		ciphertext, err := c.cipher.Encrypt(plaintext)
		if err != nil {
			return nil, err
		}

		payload[field] = ciphertext
	}

	return marshalPayload(encoded, payload)
}

// Decode decrypts the personal data fields of a stored event and decodes
// it through the inner codec
func (c *CryptoCodec) Decode(evt *EncodedEvt) (any, error) {
	fields := c.reg.Personal(evt.Type)
	if len(fields) == 0 {
		return c.inner.Decode(evt)
	}

	payload, err := unmarshalPayload(evt.Data)
	if err != nil {
		return nil, err
	}

	for _, field := range fields {
		val, ok := payload[field]
		if !ok {
			continue
		}

		ciphertext, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("%w: field %s is not a ciphertext", ErrDecryptionFailed, field)
		}

		plaintext, err := c.cipher.Decrypt(ciphertext)
		if err != nil {
			return nil, err
		}

		var decoded any

		if err := json.Unmarshal(plaintext, &decoded); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
		}

		payload[field] = decoded
	}

	decrypted, err := marshalPayload(evt, payload)
	if err != nil {
		return nil, err
	}

	return c.inner.Decode(decrypted)
}

func unmarshalPayload(data string) (map[string]any, error) {
	var payload map[string]any

	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, err
	}

	return payload, nil
}

func marshalPayload(evt *EncodedEvt, payload map[string]any) (*EncodedEvt, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &EncodedEvt{
		Type: evt.Type,
		Data: string(data),
	}, nil
}
