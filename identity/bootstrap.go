// Package identity resolves the profile of the current device without a
// login step.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/deemkeen/chirp/domain"
	"github.com/deemkeen/chirp/util"
	"github.com/google/uuid"
)

const (
	DeviceKey = "chirp_user_id"

	PlaceholderName = "New User"
	PlaceholderBio  = "Nice to meet you."
)

// ErrBootstrap marks a startup failure. Callers must not continue without a
// profile.
var ErrBootstrap = errors.New("identity bootstrap failed")

// ProfileStore is the part of the store the bootstrapper needs.
type ProfileStore interface {
	ReadProfileById(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	CreateProfile(ctx context.Context, p *domain.Profile) error
}

// Bootstrap returns the profile bound to this device, creating it on first
// launch. A stored id without a matching profile is reused for the new one.
func Bootstrap(ctx context.Context, devices DeviceStore, profiles ProfileStore) (*domain.Profile, error) {
	id, ok := storedId(devices)

	if ok {
		p, err := profiles.ReadProfileById(ctx, id)
		switch {
		case err == nil:
			log.Info("profile resolved", "id", id, "handle", p.Handle)
			return p, nil
		case errors.Is(err, domain.ErrNotFound):
			log.Warn("no profile for stored device id, creating one", "id", id)
		default:
			return nil, fmt.Errorf("%w: reading profile %s: %w", ErrBootstrap, id, err)
		}
	} else {
		id = uuid.New()
		if err := devices.Set(DeviceKey, id.String()); err != nil {
			return nil, fmt.Errorf("%w: persisting device id: %w", ErrBootstrap, err)
		}
		log.Info("minted device id", "id", id)
	}

	p := &domain.Profile{
		Id:          id,
		Handle:      util.RandomHandle(),
		DisplayName: PlaceholderName,
		Bio:         PlaceholderBio,
		Following:   domain.HandleSet{},
		Followers:   domain.HandleSet{},
	}
	if err := profiles.CreateProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("%w: creating profile %s: %w", ErrBootstrap, id, err)
	}

	log.Info("profile created", "id", p.Id, "handle", p.Handle)
	return p, nil
}

// storedId reads the device id. Values that are not a dashed 36-char uuid
// count as absent.
func storedId(devices DeviceStore) (uuid.UUID, bool) {
	raw, ok := devices.Get(DeviceKey)
	if !ok || len(raw) != 36 {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		log.Warn("ignoring invalid stored device id", "value", raw)
		return uuid.Nil, false
	}
	return id, true
}
