package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"folio/internal/config"
	"folio/internal/encryption"
)

// InitDatabase creates the configured database and applies all migrations.
// It is safe to run against a database that is already up to date.
func InitDatabase(cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	return db.Close()
}

// SetupKeys generates the key pair used to encrypt database backups,
// protecting the private key with passphrase. It returns the public key to
// share with other machines, or "" when backups are not encrypted.
func SetupKeys(cfg *config.Config, passphrase string) (string, error) {
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return "", fmt.Errorf("creating encryptor: %w", err)
	}
	if err := enc.Setup(passphrase); err != nil {
		return "", fmt.Errorf("setting up keys: %w", err)
	}
	if ae, ok := enc.(*encryption.AgeEncryptor); ok {
		return ae.Recipient()
	}
	return "", nil
}

// PullDatabase downloads this host's database backup from the vault,
// decrypts it with the passphrase-protected private key and installs it as
// the local database. An existing local database is only replaced when
// force is set. It returns the version of the installed backup.
func PullDatabase(cfg *config.Config, passphrase string, force bool) (int64, error) {
	if cfg.Database.Type != "sqlite" {
		return 0, fmt.Errorf("vault pull requires a sqlite database, got %q", cfg.Database.Type)
	}
	dest := filepath.Join(cfg.Database.DataDir, cfg.HostID+".db")
	if _, err := os.Stat(dest); err == nil && !force {
		return 0, fmt.Errorf("local database already exists at %s", dest)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("checking local database: %w", err)
	}

	v, err := newVault(cfg)
	if err != nil {
		return 0, err
	}
	version, err := v.GetMetadataVersion(cfg.HostID, dbMetadataName)
	if err != nil {
		return 0, fmt.Errorf("checking remote metadata version: %w", err)
	}
	if version == 0 {
		return 0, fmt.Errorf("no database backup in vault for host %s", cfg.HostID)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return 0, fmt.Errorf("creating encryptor: %w", err)
	}
	dc, err := enc.Unlock(passphrase)
	if err != nil {
		return 0, fmt.Errorf("unlocking private key: %w", err)
	}

	if err := os.MkdirAll(cfg.Database.DataDir, 0755); err != nil {
		return 0, fmt.Errorf("creating data directory: %w", err)
	}

	encrypted, err := os.CreateTemp(cfg.Database.DataDir, ".pull-*.age")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(encrypted.Name())
	defer encrypted.Close()

	if err := v.GetMetadata(cfg.HostID, dbMetadataName, encrypted); err != nil {
		return 0, fmt.Errorf("downloading database backup: %w", err)
	}
	if _, err := encrypted.Seek(0, 0); err != nil {
		return 0, fmt.Errorf("rewinding database backup: %w", err)
	}

	plain, err := os.CreateTemp(cfg.Database.DataDir, ".pull-*.db")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(plain.Name())

	if err := dc.Decrypt(encrypted, plain); err != nil {
		plain.Close()
		return 0, fmt.Errorf("decrypting database backup: %w", err)
	}
	if err := plain.Close(); err != nil {
		return 0, fmt.Errorf("writing database: %w", err)
	}

	// Rename is atomic within the data directory.
	if err := os.Rename(plain.Name(), dest); err != nil {
		return 0, fmt.Errorf("installing database: %w", err)
	}
	return version, nil
}

// ValidateVault checks that the configured vault is reachable.
func ValidateVault(cfg *config.Config) error {
	v, err := newVault(cfg)
	if err != nil {
		return err
	}
	return v.ValidateSetup()
}
