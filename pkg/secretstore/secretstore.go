package secretstore

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
)

// Store is a small encrypted-at-rest KV wrapper (Badger) for exchange API
// credentials. Encryption is provided by Badger options, not by this wrapper.
//
// Keys follow the layout accounts/<NAME>/{api_key,secret_key,passphrase}.
type Store struct {
	db *badger.DB
}

type OpenOptions struct {
	Path          string
	EncryptionKey []byte // 32 bytes; if nil, DB is opened without encryption (not recommended)
	ReadOnly      bool
}

const keyPrefix = "accounts/"

func Open(opts OpenOptions) (*Store, error) {
	if strings.TrimSpace(opts.Path) == "" {
		return nil, errors.New("secretstore: path is required")
	}
	bopts := badger.DefaultOptions(opts.Path).
		WithLogger(nil).
		WithReadOnly(opts.ReadOnly)
	if len(opts.EncryptionKey) > 0 {
		// Badger requires index cache for encrypted workloads
		bopts = bopts.
			WithEncryptionKey(opts.EncryptionKey).
			WithIndexCacheSize(100 << 20)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Credential is one account's API credential triple.
type Credential struct {
	Name       string
	APIKey     string
	SecretKey  string
	Passphrase string
}

// Complete reports whether all three secrets are present.
func (c Credential) Complete() bool {
	return c.APIKey != "" && c.SecretKey != "" && c.Passphrase != ""
}

// PutCredential stores one account's triple.
func (s *Store) PutCredential(c Credential) error {
	if s == nil || s.db == nil {
		return errors.New("secretstore: not opened")
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return errors.New("secretstore: account name is empty")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for field, val := range map[string]string{
			"api_key":    c.APIKey,
			"secret_key": c.SecretKey,
			"passphrase": c.Passphrase,
		} {
			if err := txn.Set([]byte(keyPrefix+name+"/"+field), []byte(val)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListCredentials returns every stored account triple, complete or not.
func (s *Store) ListCredentials() ([]Credential, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("secretstore: not opened")
	}
	byName := map[string]*Credential{}
	var order []string
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			rest := strings.TrimPrefix(string(item.Key()), keyPrefix)
			parts := strings.SplitN(rest, "/", 2)
			if len(parts) != 2 {
				continue
			}
			name, field := parts[0], parts[1]
			cred, ok := byName[name]
			if !ok {
				cred = &Credential{Name: name}
				byName[name] = cred
				order = append(order, name)
			}
			err := item.Value(func(val []byte) error {
				switch field {
				case "api_key":
					cred.APIKey = string(val)
				case "secret_key":
					cred.SecretKey = string(val)
				case "passphrase":
					cred.Passphrase = string(val)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]Credential, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}

// ParseKey expects 32 bytes (base64 or hex). Returns nil if input is empty.
func ParseKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	rawHex := strings.TrimPrefix(raw, "0x")
	if b, err := hex.DecodeString(rawHex); err == nil {
		if len(b) == 32 {
			return b, nil
		}
		return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
	}
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}
	return nil, errors.New("key must be base64(32 bytes) or hex(32 bytes)")
}
