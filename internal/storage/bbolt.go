package storage

import (
	"fmt"
	"time"

	"adminka/internal/auth"

	"go.etcd.io/bbolt"
)

var bucketSessions = []byte("sessions")

type BboltStorage struct {
	db *bbolt.DB
}

func NewBboltStorage(path string) (*BboltStorage, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BboltStorage{db: db}, nil
}

func (s *BboltStorage) Close() error {
	return s.db.Close()
}

// UpsertSession stores a new or refreshed session.
func (s *BboltStorage) UpsertSession(session auth.Session) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		dbSession := &DBSession{
			TokenHash:  session.ID,
			ProviderID: session.Identity.ProviderID,
			Username:   session.Identity.Username,
			AvatarURL:  session.Identity.AvatarURL,
			CreatedAt:  session.CreatedAt.Unix(),
			ExpiresAt:  session.ExpiresAt.Unix(),
		}

		return put(b, dbSession)
	})
}

func put(b *bbolt.Bucket, v Storeable) error {
	data, err := v.MarshalBinary()
	if err != nil {
		return err
	}
	return b.Put(v.Key(), data)
}

func (s *BboltStorage) DeleteSession(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSessions).Delete([]byte(id))
	})
}

// ListSessions returns every persisted session, expired ones included.
func (s *BboltStorage) ListSessions() ([]auth.Session, error) {
	var sessions []auth.Session
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		return b.ForEach(func(k, v []byte) error {
			var dbSession DBSession
			if err := dbSession.UnmarshalBinary(v); err != nil {
				return err
			}
			sessions = append(sessions, auth.Session{
				ID: dbSession.TokenHash,
				Identity: auth.Identity{
					ProviderID: dbSession.ProviderID,
					Username:   dbSession.Username,
					AvatarURL:  dbSession.AvatarURL,
				},
				CreatedAt: time.Unix(dbSession.CreatedAt, 0),
				ExpiresAt: time.Unix(dbSession.ExpiresAt, 0),
			})
			return nil
		})
	})
	return sessions, err
}

// PurgeExpired removes sessions that expired before now and reports how many
// were dropped.
func (s *BboltStorage) PurgeExpired(now time.Time) (int, error) {
	purged := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var dbSession DBSession
			if err := dbSession.UnmarshalBinary(v); err != nil {
				return err
			}
			if dbSession.ExpiresAt <= now.Unix() {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		purged = len(stale)
		return nil
	})
	return purged, err
}
