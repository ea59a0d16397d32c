package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/models"
)

// Manager is a durable dispatch queue on Badger. Messages survive restarts;
// a received message stays invisible for the visibility timeout and is
// redelivered if the receiver never deletes it. Messages received more than
// maxReceive times are dropped as poison.
//
// Two keys per message: the data record at queue:{name}:msg:{id} and a
// visibility index entry at queue:{name}:index:{visibleAt}:{id}. The index
// timestamp is zero-padded so lexicographic iteration yields time order.
type Manager struct {
	db                *badgerdb.DB
	queueName         string
	visibilityTimeout time.Duration
	maxReceive        int
	logger            arbor.ILogger
}

// NewManager creates a Badger-backed queue manager.
func NewManager(db *badgerdb.DB, queueName string, visibilityTimeout time.Duration, maxReceive int, logger arbor.ILogger) (*Manager, error) {
	if db == nil {
		return nil, errors.New("badger db is required")
	}
	if queueName == "" {
		return nil, errors.New("queue name is required")
	}
	if visibilityTimeout <= 0 {
		visibilityTimeout = 10 * time.Minute
	}
	if maxReceive <= 0 {
		maxReceive = 3
	}

	return &Manager{
		db:                db,
		queueName:         queueName,
		visibilityTimeout: visibilityTimeout,
		maxReceive:        maxReceive,
		logger:            logger,
	}, nil
}

// Enqueue durably stores one run message, immediately visible.
func (m *Manager) Enqueue(ctx context.Context, msg models.RunMessage) error {
	env := envelope{
		ID:         uuid.New().String(),
		Body:       msg,
		EnqueuedAt: time.Now(),
		VisibleAt:  time.Now(),
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal queue message: %w", err)
	}

	err = m.db.Update(func(txn *badgerdb.Txn) error {
		if err := txn.Set(m.msgKey(env.ID), data); err != nil {
			return err
		}
		return txn.Set(m.indexKey(env.VisibleAt, env.ID), []byte{})
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue message: %w", err)
	}

	m.logger.Debug().
		Str("queue", m.queueName).
		Str("message_id", env.ID).
		Str("run_id", msg.RunID).
		Msg("Message enqueued")
	return nil
}

// Receive claims the oldest visible message, extending its invisibility by
// the visibility timeout. Returns ErrNoMessage when nothing is ready.
func (m *Manager) Receive(ctx context.Context) (*Delivery, error) {
	var delivery *Delivery

	err := m.db.Update(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := []byte(fmt.Sprintf("queue:%s:index:", m.queueName))
		it := txn.NewIterator(opts)
		defer it.Close()

		now := time.Now()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			indexKey := it.Item().KeyCopy(nil)

			ts, id, err := m.parseIndexKey(indexKey)
			if err != nil {
				continue
			}
			// Index keys iterate in visibility order, so the first future
			// entry means nothing else is ready either.
			if ts.After(now) {
				break
			}

			item, err := txn.Get(m.msgKey(id))
			if err != nil {
				if err == badgerdb.ErrKeyNotFound {
					// Orphaned index entry, clean it up.
					if err := txn.Delete(indexKey); err != nil {
						return err
					}
					continue
				}
				return err
			}

			var env envelope
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &env)
			}); err != nil {
				return err
			}

			if env.ReceiveCount >= m.maxReceive {
				m.logger.Warn().
					Str("queue", m.queueName).
					Str("message_id", id).
					Int("receive_count", env.ReceiveCount).
					Msg("Dropping poison message")
				if err := txn.Delete(indexKey); err != nil {
					return err
				}
				if err := txn.Delete(m.msgKey(id)); err != nil {
					return err
				}
				continue
			}

			env.ReceiveCount++
			env.VisibleAt = now.Add(m.visibilityTimeout)

			data, err := json.Marshal(env)
			if err != nil {
				return err
			}
			if err := txn.Set(m.msgKey(id), data); err != nil {
				return err
			}
			if err := txn.Delete(indexKey); err != nil {
				return err
			}
			if err := txn.Set(m.indexKey(env.VisibleAt, id), []byte{}); err != nil {
				return err
			}

			delivery = &Delivery{
				ID:           id,
				Body:         env.Body,
				ReceiveCount: env.ReceiveCount,
			}
			return nil
		}

		return ErrNoMessage
	})
	if err != nil {
		return nil, err
	}
	return delivery, nil
}

// Delete acknowledges a message, removing it permanently. Deleting a message
// that is already gone is not an error.
func (m *Manager) Delete(ctx context.Context, messageID string) error {
	return m.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(m.msgKey(messageID))
		if err != nil {
			if err == badgerdb.ErrKeyNotFound {
				return nil
			}
			return err
		}

		var env envelope
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &env)
		}); err != nil {
			return err
		}

		if err := txn.Delete(m.indexKey(env.VisibleAt, messageID)); err != nil && err != badgerdb.ErrKeyNotFound {
			return err
		}
		return txn.Delete(m.msgKey(messageID))
	})
}

// Depth counts stored messages, visible or not.
func (m *Manager) Depth(ctx context.Context) (int, error) {
	count := 0
	err := m.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := []byte(fmt.Sprintf("queue:%s:msg:", m.queueName))
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count queue depth: %w", err)
	}
	return count, nil
}

func (m *Manager) msgKey(id string) []byte {
	return []byte(fmt.Sprintf("queue:%s:msg:%s", m.queueName, id))
}

func (m *Manager) indexKey(visibleAt time.Time, id string) []byte {
	return []byte(fmt.Sprintf("queue:%s:index:%020d:%s", m.queueName, visibleAt.UnixNano(), id))
}

func (m *Manager) parseIndexKey(key []byte) (time.Time, string, error) {
	prefix := fmt.Sprintf("queue:%s:index:", m.queueName)
	suffix := strings.TrimPrefix(string(key), prefix)
	if len(suffix) < 22 { // 20-digit timestamp, colon, at least one id byte
		return time.Time{}, "", fmt.Errorf("invalid index key %q", key)
	}

	ns, err := strconv.ParseInt(suffix[:20], 10, 64)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid index timestamp: %w", err)
	}
	return time.Unix(0, ns), suffix[21:], nil
}
