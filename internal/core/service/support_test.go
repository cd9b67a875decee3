package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/identitykit/identity-core/internal/core/domain"
	"github.com/identitykit/identity-core/internal/core/ports"
)

// memUserRepo is an in-memory ports.UserRepository for service tests. It
// stores snapshots so aggregates behave like rows, not shared pointers.
type memUserRepo struct {
	mu      sync.Mutex
	records map[string]domain.UserRecord
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{records: make(map[string]domain.UserRecord)}
}

func (r *memUserRepo) Save(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := user.Record()
	for id, existing := range r.records {
		if id != rec.ID && existing.Email == rec.Email {
			return domain.ErrDuplicateEmail
		}
	}
	r.records[rec.ID] = rec
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return domain.UserFromRecord(rec), nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = strings.ToLower(email)
	for _, rec := range r.records {
		if rec.Email == email {
			return domain.UserFromRecord(rec), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) ExistsByEmail(_ context.Context, email, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = strings.ToLower(email)
	for id, rec := range r.records {
		if rec.Email == email && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) List(_ context.Context, filter ports.ListUsersFilter) ([]*domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, rec := range r.records {
		u := domain.UserFromRecord(rec)
		if filter.Role != "" && !u.HasRole(filter.Role) {
			continue
		}
		if filter.Active != nil && u.IsActive() != *filter.Active {
			continue
		}
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

// memTokenStore is an in-memory ports.RefreshTokenStore.
type memTokenStore struct {
	mu      sync.Mutex
	records map[string]*domain.RefreshTokenRecord // keyed by token
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{records: make(map[string]*domain.RefreshTokenRecord)}
}

func (s *memTokenStore) Create(_ context.Context, rec *domain.RefreshTokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *rec
	s.records[rec.Token] = &clone
	return nil
}

func (s *memTokenStore) Find(_ context.Context, token string) (*domain.RefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[token]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	clone := *rec
	return &clone, nil
}

func (s *memTokenStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[token]
	if !ok {
		return domain.ErrSessionNotFound
	}
	rec.Revoked = true
	return nil
}

func (s *memTokenStore) RevokeAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.UserID == userID {
			rec.Revoked = true
		}
	}
	return nil
}

func (s *memTokenStore) IsRevoked(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[token]
	if !ok {
		// A token that was never recorded cannot be trusted.
		return true, nil
	}
	return rec.Revoked, nil
}

func (s *memTokenStore) CountActiveForUser(_ context.Context, userID string, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, rec := range s.records {
		if rec.UserID == userID && rec.IsUsable(now) {
			n++
		}
	}
	return n, nil
}

func (s *memTokenStore) ListForUser(_ context.Context, userID string) ([]*domain.RefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.RefreshTokenRecord
	for _, rec := range s.records {
		if rec.UserID == userID {
			clone := *rec
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *memTokenStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for token, rec := range s.records {
		if rec.Revoked || rec.IsExpired(now) {
			delete(s.records, token)
			n++
		}
	}
	return n, nil
}

// memRevocationList is an in-memory ports.RevocationList.
type memRevocationList struct {
	mu      sync.Mutex
	flagged map[string]bool
	err     error
}

func newMemRevocationList() *memRevocationList {
	return &memRevocationList{flagged: make(map[string]bool)}
}

func (l *memRevocationList) Revoke(_ context.Context, token string, _ time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.flagged[token] = true
	return nil
}

func (l *memRevocationList) IsRevoked(_ context.Context, token string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	return l.flagged[token], nil
}

// fakeHasher is a fast reversible stand-in for bcrypt in service tests.
type fakeHasher struct{}

func (fakeHasher) Hash(plaintext string) (string, error) {
	return "hashed:" + plaintext, nil
}

func (fakeHasher) Compare(plaintext, hashed string) (bool, error) {
	if !strings.HasPrefix(hashed, "hashed:") {
		return false, domain.ErrMalformedCredential
	}
	return hashed == "hashed:"+plaintext, nil
}

func (fakeHasher) IsHashed(value string) bool {
	return strings.HasPrefix(value, "hashed:")
}

func (fakeHasher) Describe(hashed string) (ports.HashInfo, bool) {
	if !strings.HasPrefix(hashed, "hashed:") {
		return ports.HashInfo{}, false
	}
	return ports.HashInfo{Algorithm: "fake"}, true
}

// recordingNotifier captures notifications handed to it.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []ports.Notification
}

func (n *recordingNotifier) Send(_ context.Context, notification ports.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

func (n *recordingNotifier) byKind(kind ports.NotificationKind) []ports.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []ports.Notification
	for _, sent := range n.sent {
		if sent.Kind == kind {
			out = append(out, sent)
		}
	}
	return out
}

func testTokenSettings() TokenSettings {
	return TokenSettings{
		Secrets: map[domain.TokenType]string{
			domain.TokenTypeAccess:            "access-secret",
			domain.TokenTypeRefresh:           "refresh-secret",
			domain.TokenTypeEmailVerification: "verify-secret",
			domain.TokenTypePasswordReset:     "reset-secret",
		},
	}
}
