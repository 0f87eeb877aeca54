package kvstore

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/dgraph-io/badger/options"
	"github.com/intrntsrfr/countrydex/logger"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("spawn session not found")

type Store struct {
	db  *badger.DB
	log *zap.Logger

	// claimMu makes every state transition a single-writer check-and-set
	claimMu sync.Mutex
	stop    chan struct{}
	done    chan struct{}
}

func NewStore(path string, log *zap.Logger) (*Store, error) {
	s := &Store{
		log:  log,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	opts := badger.DefaultOptions(path)
	opts.Truncate = true
	opts.ValueLogLoadingMode = options.FileIO
	opts.NumVersionsToKeep = 1
	opts.Logger = logger.Badger(log.Named("badger"))

	db, err := badger.Open(opts)
	if err != nil {
		s.log.Error("failed to open store", zap.Error(err))
		return nil, err
	}
	s.db = db

	go s.runGC(time.Hour)

	return s, nil
}

func (s *Store) Close() error {
	close(s.stop)
	<-s.done
	return s.db.Close()
}

func (s *Store) runGC(every time.Duration) {
	defer close(s.done)
	gcTicker := time.NewTicker(every)
	defer gcTicker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-gcTicker.C:
			for {
				err := s.db.RunValueLogGC(0.7)
				if err == badger.ErrNoRewrite {
					break
				}
				if err != nil {
					s.log.Error("failed to run gc", zap.Error(err))
					break
				}
			}
		}
	}
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(v)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func spawnKey(id string) []byte {
	return []byte(fmt.Sprintf("spawn:%v", id))
}

// PutSpawn stores a new session. It is dropped from the store after ttl.
func (s *Store) PutSpawn(sess *Session, ttl time.Duration) error {
	enc, err := encodeGob(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(spawnKey(sess.ID), enc).WithTTL(ttl))
	})
}

func (s *Store) GetSpawn(id string) (*Session, error) {
	var sess Session
	if err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(spawnKey(id))
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return decodeGob(value, &sess)
	}); err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, ErrSessionNotFound
		}
		s.log.Error("failed to read session", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return &sess, nil
}

func (s *Store) DeleteSpawn(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(spawnKey(id))
	})
}

// update rewrites a session in place, keeping its expiry. apply returns false
// to leave the session untouched.
func (s *Store) update(id string, apply func(*Session) bool) (bool, *Session, error) {
	s.claimMu.Lock()
	defer s.claimMu.Unlock()

	var (
		sess    Session
		changed bool
	)
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(spawnKey(id))
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := decodeGob(value, &sess); err != nil {
			return err
		}

		if !apply(&sess) {
			return nil
		}

		enc, err := encodeGob(&sess)
		if err != nil {
			return err
		}
		changed = true
		return txn.SetEntry(&badger.Entry{
			Key:       spawnKey(id),
			Value:     enc,
			ExpiresAt: item.ExpiresAt(),
		})
	})
	switch {
	case err == badger.ErrKeyNotFound:
		return false, nil, ErrSessionNotFound
	case err == badger.ErrConflict:
		// someone else committed first
		return false, nil, nil
	case err != nil:
		return false, nil, err
	}
	return changed, &sess, nil
}

// SetSpawnMessage records where the spawn message was posted.
func (s *Store) SetSpawnMessage(id, channelID, messageID string) error {
	_, _, err := s.update(id, func(sess *Session) bool {
		sess.ChannelID = channelID
		sess.MessageID = messageID
		return true
	})
	return err
}

// ClaimSpawn moves an open session to claimed for userID. ok is false if the
// session was not open anymore; sess is then the state that made it lose.
func (s *Store) ClaimSpawn(id, userID string, at time.Time) (ok bool, sess *Session, err error) {
	return s.update(id, func(sess *Session) bool {
		if sess.State != StateOpen {
			return false
		}
		sess.State = StateClaimed
		sess.ClaimedBy = userID
		sess.ClaimedAt = at
		return true
	})
}

// ReopenSpawn undoes a claim, used when the claim could not be completed.
func (s *Store) ReopenSpawn(id string) error {
	_, _, err := s.update(id, func(sess *Session) bool {
		if sess.State != StateClaimed {
			return false
		}
		sess.State = StateOpen
		sess.ClaimedBy = ""
		sess.ClaimedAt = time.Time{}
		return true
	})
	return err
}

// ExpireSpawn moves an open session to expired.
func (s *Store) ExpireSpawn(id string) (bool, *Session, error) {
	return s.update(id, func(sess *Session) bool {
		if sess.State != StateOpen {
			return false
		}
		sess.State = StateExpired
		return true
	})
}
