package encryption

import (
	"bytes"
	"fmt"
	"io"

	"folio/internal/folio"
)

// plainHeader marks data written by PlainEncryptor so a plain backup is never
// mistaken for an age file, and vice versa.
var plainHeader = []byte("FOLIO\x00P\x01")

// PlainEncryptor stores data unencrypted behind a fixed header. It is used
// when encryption type is "none", for vaults that are already trusted, and in
// tests where no key material should be required.
type PlainEncryptor struct {
	setupCalled bool
}

var _ folio.Encryptor = (*PlainEncryptor)(nil)

// NewPlainEncryptor creates a new PlainEncryptor.
func NewPlainEncryptor() *PlainEncryptor {
	return &PlainEncryptor{}
}

func (e *PlainEncryptor) Setup(passphrase string) error {
	e.setupCalled = true
	return nil
}

func (e *PlainEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(plainHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *PlainEncryptor) Unlock(passphrase string) (folio.DecryptionContext, error) {
	return &PlainDecryptionContext{}, nil
}

func (e *PlainEncryptor) IsConfigured() bool {
	return true
}

// PlainDecryptionContext strips the header added by PlainEncryptor.
type PlainDecryptionContext struct{}

var _ folio.DecryptionContext = (*PlainDecryptionContext)(nil)

func (c *PlainDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(plainHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	if !bytes.Equal(header, plainHeader) {
		return fmt.Errorf("not a plain folio backup")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
