// Package session keeps the logged-in user id in a small bbolt file, the
// client-side storage of the current identity.
package session

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/CedricFinance/partyvote/domain/services"
)

var (
	bucketName = []byte("session")
	userIdKey  = []byte("user_id")
)

type Store struct {
	db *bolt.DB
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "create session directory")
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open session store %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "init session store")
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CurrentUser() (string, bool, error) {
	var userId string
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketName).Get(userIdKey); v != nil {
			userId = string(v)
		}
		return nil
	})
	if err != nil {
		return "", false, errors.Wrap(err, "read session")
	}
	return userId, userId != "", nil
}

func (s *Store) SetCurrentUser(userId string) error {
	if userId == "" {
		return errors.New("empty user id")
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(userIdKey, []byte(userId))
	})
	return errors.Wrap(err, "write session")
}

func (s *Store) Clear() error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete(userIdKey)
	})
	return errors.Wrap(err, "clear session")
}

var _ services.SessionStore = (*Store)(nil)
