// Package redisstore implements the store ports on Redis. Session records
// are JSON values; a per-state set index supports the expiry sweeper without
// scanning the keyspace.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/calmora/calmora_backend/internal/model"
	"github.com/calmora/calmora_backend/internal/store"
	"github.com/calmora/calmora_backend/pkg/crypto"
)

const (
	sessionKeyPrefix   = "session:"
	authorityKeyPrefix = "session:authority:"
	stateSetPrefix     = "sessions:state:"
)

type Sessions struct {
	rdb *goredis.Client
	// key encrypts intake notes and feedback comments at rest; nil stores
	// them in the clear (development only).
	key []byte
}

// NewSessions builds the session store. encryptionKeyHex may be empty.
func NewSessions(rdb *goredis.Client, encryptionKeyHex string) (*Sessions, error) {
	var key []byte
	if encryptionKeyHex != "" {
		k, err := crypto.KeyFromHex(encryptionKeyHex)
		if err != nil {
			return nil, fmt.Errorf("session store encryption key: %w", err)
		}
		key = k
	}
	return &Sessions{rdb: rdb, key: key}, nil
}

func sessionKey(id uuid.UUID) string { return sessionKeyPrefix + id.String() }
func authorityKey(a string) string   { return authorityKeyPrefix + a }
func stateKey(st model.State) string { return stateSetPrefix + string(st) }

func (s *Sessions) Get(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	return s.decode(raw)
}

func (s *Sessions) Put(ctx context.Context, sess *model.Session) error {
	raw, err := s.encode(sess)
	if err != nil {
		return err
	}

	// Read the previous state so the per-state index can be kept in step
	// with the record in one pipeline round trip.
	var prevState model.State
	if prevRaw, err := s.rdb.Get(ctx, sessionKey(sess.ID)).Bytes(); err == nil {
		if prev, err := s.decode(prevRaw); err == nil {
			prevState = prev.State
		}
	} else if !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("redis read previous session: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(sess.ID), raw, 0)
		if prevState != "" && prevState != sess.State {
			pipe.SRem(ctx, stateKey(prevState), sess.ID.String())
		}
		pipe.SAdd(ctx, stateKey(sess.State), sess.ID.String())
		if sess.Payment.Authority != "" {
			pipe.Set(ctx, authorityKey(sess.Payment.Authority), sess.ID.String(), 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put session: %w", err)
	}
	return nil
}

func (s *Sessions) ListByState(ctx context.Context, state model.State) ([]*model.Session, error) {
	ids, err := s.rdb.SMembers(ctx, stateKey(state)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list state index: %w", err)
	}

	sessions := make([]*model.Session, 0, len(ids))
	for _, idStr := range ids {
		id, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		sess, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Stale index entry; drop it.
				s.rdb.SRem(ctx, stateKey(state), idStr)
				continue
			}
			return nil, err
		}
		// The index is advisory; the record is authoritative.
		if sess.State == state {
			sessions = append(sessions, sess)
		}
	}
	return sessions, nil
}

func (s *Sessions) FindByAuthority(ctx context.Context, authority string) (*model.Session, error) {
	idStr, err := s.rdb.Get(ctx, authorityKey(authority)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("redis get authority index: %w", err)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt authority index %q: %w", authority, err)
	}
	return s.Get(ctx, id)
}

// encode marshals the session, encrypting the patient-reported free text
// when a key is configured. The in-memory record is never mutated.
func (s *Sessions) encode(sess *model.Session) ([]byte, error) {
	if s.key == nil {
		return json.Marshal(sess)
	}

	clone := *sess
	if sess.Intake != nil && sess.Intake.Notes != "" {
		intake := *sess.Intake
		enc, err := crypto.Encrypt(s.key, intake.Notes)
		if err != nil {
			return nil, fmt.Errorf("encrypt intake notes: %w", err)
		}
		intake.Notes = enc
		clone.Intake = &intake
	}
	if sess.Feedback != nil && sess.Feedback.Comments != nil {
		feedback := *sess.Feedback
		enc, err := crypto.Encrypt(s.key, *feedback.Comments)
		if err != nil {
			return nil, fmt.Errorf("encrypt feedback comments: %w", err)
		}
		feedback.Comments = &enc
		clone.Feedback = &feedback
	}
	return json.Marshal(&clone)
}

func (s *Sessions) decode(raw []byte) (*model.Session, error) {
	var sess model.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if s.key == nil {
		return &sess, nil
	}

	if sess.Intake != nil && sess.Intake.Notes != "" {
		dec, err := crypto.Decrypt(s.key, sess.Intake.Notes)
		if err != nil {
			return nil, fmt.Errorf("decrypt intake notes: %w", err)
		}
		sess.Intake.Notes = dec
	}
	if sess.Feedback != nil && sess.Feedback.Comments != nil {
		dec, err := crypto.Decrypt(s.key, *sess.Feedback.Comments)
		if err != nil {
			return nil, fmt.Errorf("decrypt feedback comments: %w", err)
		}
		sess.Feedback.Comments = &dec
	}
	return &sess, nil
}
