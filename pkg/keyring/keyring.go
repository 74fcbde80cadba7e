// Package keyring stores connection passwords in the system keyring, falling
// back to an AES-GCM encrypted file on hosts without one.
package keyring

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/zalando/go-keyring"
)

// ServiceName is the keyring service all entries are stored under.
const ServiceName = "redb-cql"

// Backends
const (
	BackendAuto   = "auto"
	BackendSystem = "system"
	BackendFile   = "file"
)

// ErrNotFound is returned when no entry exists.
var ErrNotFound = errors.New("keyring entry not found")

// ProfileUser is the keyring user holding a connection profile's password.
func ProfileUser(profile string) string {
	return "profile:" + profile
}

// StoreUser is the keyring user holding an overlay store backend's password.
func StoreUser(backend string) string {
	return "overlay-store:" + backend
}

// FileKeyring implements a file-based keyring for headless hosts
type FileKeyring struct {
	keyringPath string
	masterKey   []byte
}

// KeyringEntry represents a stored keyring entry
type KeyringEntry struct {
	Service string `json:"service"`
	User    string `json:"user"`
	Data    string `json:"data"` // encrypted
}

// Manager provides a unified interface over the system and file keyrings.
type Manager struct {
	fileKeyring *FileKeyring
	useFile     bool
}

// NewManager creates a keyring manager. BackendAuto probes the system keyring
// and falls back to the file when it is unavailable or does not answer within
// five seconds.
func NewManager(keyringPath, masterPassword, backend string) *Manager {
	switch backend {
	case BackendFile:
		return &Manager{fileKeyring: NewFileKeyring(keyringPath, masterPassword), useFile: true}
	case BackendSystem:
		return &Manager{}
	}

	done := make(chan error, 1)
	go func() {
		err := keyring.Set(ServiceName+"-probe", "probe", "probe")
		if err == nil {
			_ = keyring.Delete(ServiceName+"-probe", "probe")
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			return &Manager{}
		}
	case <-time.After(5 * time.Second):
	}
	return &Manager{fileKeyring: NewFileKeyring(keyringPath, masterPassword), useFile: true}
}

// NewFromEnv creates a manager configured by REDB_CQL_KEYRING_PATH,
// REDB_CQL_KEYRING_PASSWORD and REDB_CQL_KEYRING_BACKEND.
func NewFromEnv() *Manager {
	backend := os.Getenv("REDB_CQL_KEYRING_BACKEND")
	if backend == "" {
		backend = BackendAuto
	}
	return NewManager(GetDefaultKeyringPath(), GetMasterPasswordFromEnv(), backend)
}

// UsesFile reports whether entries go to the encrypted file.
func (m *Manager) UsesFile() bool {
	return m.useFile
}

// Set stores a value under ServiceName.
func (m *Manager) Set(user, password string) error {
	if !m.useFile {
		return keyring.Set(ServiceName, user, password)
	}
	return m.fileKeyring.Set(ServiceName, user, password)
}

// Get retrieves a value. Missing entries return ErrNotFound.
func (m *Manager) Get(user string) (string, error) {
	var (
		v   string
		err error
	)
	if !m.useFile {
		v, err = keyring.Get(ServiceName, user)
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return v, err
	}
	return m.fileKeyring.Get(ServiceName, user)
}

// Delete removes a value. Deleting a missing entry is not an error.
func (m *Manager) Delete(user string) error {
	if !m.useFile {
		if err := keyring.Delete(ServiceName, user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return err
		}
		return nil
	}
	return m.fileKeyring.Delete(ServiceName, user)
}

// Lookup returns the stored value, or "" when there is none.
func (m *Manager) Lookup(user string) (string, error) {
	v, err := m.Get(user)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

// NewFileKeyring creates a file-based keyring whose key is derived from
// masterPassword.
func NewFileKeyring(keyringPath, masterPassword string) *FileKeyring {
	_ = os.MkdirAll(filepath.Dir(keyringPath), 0o700)
	hash := sha256.Sum256([]byte(masterPassword))
	return &FileKeyring{
		keyringPath: keyringPath,
		masterKey:   hash[:],
	}
}

// encrypt encrypts plaintext using AES-GCM
func (fk *FileKeyring) encrypt(plaintext string) (string, error) {
	gcm, err := fk.gcm()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts ciphertext using AES-GCM
func (fk *FileKeyring) decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}
	gcm, err := fk.gcm()
	if err != nil {
		return "", err
	}
	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}
	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt keyring entry: %w", err)
	}
	return string(plaintext), nil
}

func (fk *FileKeyring) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(fk.masterKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (fk *FileKeyring) load() (map[string]KeyringEntry, error) {
	entries := make(map[string]KeyringEntry)
	data, err := os.ReadFile(fk.keyringPath)
	if os.IsNotExist(err) {
		return entries, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("corrupt keyring file %s: %w", fk.keyringPath, err)
	}
	return entries, nil
}

func (fk *FileKeyring) store(entries map[string]KeyringEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return os.WriteFile(fk.keyringPath, data, 0o600)
}

// Set stores an entry in the file keyring
func (fk *FileKeyring) Set(service, user, password string) error {
	entries, err := fk.load()
	if err != nil {
		return err
	}
	encrypted, err := fk.encrypt(password)
	if err != nil {
		return err
	}
	entries[service+":"+user] = KeyringEntry{Service: service, User: user, Data: encrypted}
	return fk.store(entries)
}

// Get retrieves an entry from the file keyring
func (fk *FileKeyring) Get(service, user string) (string, error) {
	entries, err := fk.load()
	if err != nil {
		return "", err
	}
	entry, ok := entries[service+":"+user]
	if !ok {
		return "", ErrNotFound
	}
	return fk.decrypt(entry.Data)
}

// Delete removes an entry from the file keyring
func (fk *FileKeyring) Delete(service, user string) error {
	entries, err := fk.load()
	if err != nil {
		return err
	}
	key := service + ":" + user
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return fk.store(entries)
}

// GetMasterPasswordFromEnv gets the file keyring master password from the
// environment.
func GetMasterPasswordFromEnv() string {
	if password := os.Getenv("REDB_CQL_KEYRING_PASSWORD"); password != "" {
		return password
	}
	// Default password for development (change this in production!)
	return "default-master-password-change-me"
}

// GetDefaultKeyringPath returns the default keyring file path
func GetDefaultKeyringPath() string {
	if path := os.Getenv("REDB_CQL_KEYRING_PATH"); path != "" {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "redb-cql-keyring.json")
	}
	return filepath.Join(homeDir, ".local", "share", "redb-cql", "keyring.json")
}
