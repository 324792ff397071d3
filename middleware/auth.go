package middleware

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/deemkeen/chirp/db"
	"github.com/deemkeen/chirp/domain"
	"github.com/deemkeen/chirp/identity"
	"github.com/deemkeen/chirp/util"
)

type contextKey struct{ name string }

var profileKey = &contextKey{"profile"}

// keyDevices stores the device id of one SSH public key.
type keyDevices struct {
	ctx     context.Context
	db      *db.DB
	keyHash string
}

func (d keyDevices) Get(key string) (string, bool) {
	if key != identity.DeviceKey {
		return "", false
	}
	id, err := d.db.ReadDeviceId(d.ctx, d.keyHash)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn("could not read device id", "key", d.keyHash, "err", err)
		}
		return "", false
	}
	return id, true
}

func (d keyDevices) Set(key string, value string) error {
	if key != identity.DeviceKey {
		return errors.New("unsupported device key " + key)
	}
	return d.db.WriteDeviceId(d.ctx, d.keyHash, value)
}

// AuthMiddleware treats the client's public key as its device and resolves
// the profile bound to it.
func AuthMiddleware(database *db.DB) wish.Middleware {
	return func(h ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			if s.PublicKey() == nil {
				wish.Fatalln(s, "a public key is required")
				return
			}

			keyHash := util.PkToHash(util.PublicKeyToString(s.PublicKey()))
			devices := keyDevices{ctx: s.Context(), db: database, keyHash: keyHash}

			profile, err := identity.Bootstrap(s.Context(), devices, database)
			if err != nil {
				log.Error("bootstrap failed", "user", s.User(), "remote", s.RemoteAddr(), "err", err)
				wish.Fatalln(s, "could not set up your profile, please try again later")
				return
			}

			log.Info("session started", "handle", profile.Handle, "remote", s.RemoteAddr())
			s.Context().SetValue(profileKey, profile)
			h(s)
		}
	}
}

// ProfileFromSession returns the profile resolved by AuthMiddleware.
func ProfileFromSession(s ssh.Session) (*domain.Profile, bool) {
	p, ok := s.Context().Value(profileKey).(*domain.Profile)
	return p, ok
}
