package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/CryOutNow/initializers"
	"github.com/CryOutNow/models"
	"github.com/doug-martin/goqu/v9"
	"golang.org/x/sync/singleflight"
)

// ProfileBootstrapper lazily creates the profile row for a newly
// authenticated identity. Ids that have already been ensured this session are
// cached so repeat calls perform no write; concurrent calls for one id are
// collapsed into a single upsert.
type ProfileBootstrapper struct {
	mu    sync.Mutex
	done  map[string]bool
	group singleflight.Group
}

var profileBootstrapper *ProfileBootstrapper

func InitProfileBootstrapper() {
	profileBootstrapper = NewProfileBootstrapper()
}

func GetProfileBootstrapper() *ProfileBootstrapper {
	return profileBootstrapper
}

func NewProfileBootstrapper() *ProfileBootstrapper {
	return &ProfileBootstrapper{done: make(map[string]bool)}
}

// EnsureProfile upserts the profile row for a session's user unless it was
// already ensured. Username, display name and avatar come from the identity
// provider's metadata.
func (b *ProfileBootstrapper) EnsureProfile(ctx context.Context, session models.Session) error {
	if session.User_ID == "" {
		return nil
	}
	if b.ensured(session.User_ID) {
		return nil
	}

	_, err, _ := b.group.Do(session.User_ID, func() (interface{}, error) {
		if b.ensured(session.User_ID) {
			return nil, nil
		}

		now := time.Now().UTC()
		row := goqu.Record{
			"id":         session.User_ID,
			"username":   DeriveUsername(session),
			"full_name":  DeriveFullName(session),
			"avatar_url": deriveAvatarURL(session),
			"created_at": now,
			"updated_at": now,
		}

		insert := initializers.DB.Insert("profiles").
			Rows(row).
			OnConflict(goqu.DoUpdate("id", goqu.Record{
				"username":   DeriveUsername(session),
				"full_name":  DeriveFullName(session),
				"updated_at": now,
			})).
			Executor()
		if _, err := insert.ExecContext(ctx); err != nil {
			return nil, err
		}

		b.mu.Lock()
		b.done[session.User_ID] = true
		b.mu.Unlock()
		return nil, nil
	})
	return err
}

func (b *ProfileBootstrapper) ensured(userID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done[userID]
}

// Reset forgets all ensured ids. Intended for tests.
func (b *ProfileBootstrapper) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.done = make(map[string]bool)
}

// DeriveFullName picks a display name from auth metadata, preferring the
// provider's full_name and falling back to a generic one.
func DeriveFullName(session models.Session) string {
	if v := session.MetadataString("full_name"); v != "" {
		return v
	}
	if v := session.MetadataString("name"); v != "" {
		return v
	}
	return "Anonymous"
}

// DeriveUsername builds a username from the email local part, the provider's
// preferred username, or the display name with spaces removed.
func DeriveUsername(session models.Session) string {
	if session.Email != "" {
		if at := strings.Index(session.Email, "@"); at > 0 {
			return session.Email[:at]
		}
	}
	if v := session.MetadataString("preferred_username"); v != "" {
		return v
	}
	if v := session.MetadataString("name"); v != "" {
		return strings.ReplaceAll(v, " ", "")
	}
	return "user"
}

func deriveAvatarURL(session models.Session) *string {
	if v := session.MetadataString("avatar_url"); v != "" {
		return &v
	}
	if v := session.MetadataString("picture"); v != "" {
		return &v
	}
	return nil
}
