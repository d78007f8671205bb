package memory

import (
	"time"

	"prf-forms-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps verified sessions in memory. Entries expire on
// their own; a missing entry means the caller must re-authenticate.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	c := cache.New(24*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *entity.Session) {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return
	}
	r.cache.Set(session.Token, session, ttl)
}

func (r *SessionRepository) Get(token string) (*entity.Session, bool) {
	if x, found := r.cache.Get(token); found {
		s := x.(*entity.Session)
		if s.Valid() {
			return s, true
		}
	}
	return nil, false
}

func (r *SessionRepository) Delete(token string) {
	r.cache.Delete(token)
}
