package identity

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/deemkeen/chirp/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memDevices struct {
	values map[string]string
	setErr error
}

func (m *memDevices) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *memDevices) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

type fakeProfiles struct {
	byId      map[uuid.UUID]*domain.Profile
	readErr   error
	createErr error
	created   []*domain.Profile
}

func (f *fakeProfiles) ReadProfileById(_ context.Context, id uuid.UUID) (*domain.Profile, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	p, ok := f.byId[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfiles) CreateProfile(_ context.Context, p *domain.Profile) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byId == nil {
		f.byId = map[uuid.UUID]*domain.Profile{}
	}
	f.byId[p.Id] = p
	f.created = append(f.created, p)
	return nil
}

var handlePattern = regexp.MustCompile(`^user_[0-9a-z]{5}$`)

func TestBootstrapFirstLaunch(t *testing.T) {
	devices := &memDevices{}
	profiles := &fakeProfiles{}

	p, err := Bootstrap(context.Background(), devices, profiles)
	require.NoError(t, err)

	stored, ok := devices.Get(DeviceKey)
	require.True(t, ok)
	assert.Len(t, stored, 36)
	assert.Equal(t, stored, p.Id.String())
	assert.Regexp(t, handlePattern, p.Handle)
	assert.Equal(t, PlaceholderName, p.DisplayName)
	assert.Equal(t, PlaceholderBio, p.Bio)
	assert.Empty(t, p.Following)
	assert.Empty(t, p.Followers)
	assert.Len(t, profiles.created, 1)
}

func TestBootstrapExistingProfile(t *testing.T) {
	id := uuid.New()
	existing := &domain.Profile{Id: id, Handle: "alice", DisplayName: "Alice"}
	devices := &memDevices{values: map[string]string{DeviceKey: id.String()}}
	profiles := &fakeProfiles{byId: map[uuid.UUID]*domain.Profile{id: existing}}

	p, err := Bootstrap(context.Background(), devices, profiles)
	require.NoError(t, err)
	assert.Same(t, existing, p)
	assert.Empty(t, profiles.created)
}

func TestBootstrapReusesOrphanedId(t *testing.T) {
	id := uuid.New()
	devices := &memDevices{values: map[string]string{DeviceKey: id.String()}}
	profiles := &fakeProfiles{}

	p, err := Bootstrap(context.Background(), devices, profiles)
	require.NoError(t, err)
	assert.Equal(t, id, p.Id)
	require.Len(t, profiles.created, 1)

	stored, _ := devices.Get(DeviceKey)
	assert.Equal(t, id.String(), stored, "the stored id must not be replaced")

	// a second launch finds the profile created by the first
	again, err := Bootstrap(context.Background(), devices, profiles)
	require.NoError(t, err)
	assert.Equal(t, id, again.Id)
	assert.Len(t, profiles.created, 1)
}

func TestBootstrapInvalidStoredIdIsAbsent(t *testing.T) {
	devices := &memDevices{values: map[string]string{DeviceKey: "not-a-uuid"}}
	profiles := &fakeProfiles{}

	p, err := Bootstrap(context.Background(), devices, profiles)
	require.NoError(t, err)

	stored, _ := devices.Get(DeviceKey)
	assert.Equal(t, p.Id.String(), stored)
	assert.NotEqual(t, "not-a-uuid", stored)
}

func TestBootstrapCreateFailureIsFatal(t *testing.T) {
	devices := &memDevices{}
	profiles := &fakeProfiles{createErr: errors.New("insert rejected")}

	p, err := Bootstrap(context.Background(), devices, profiles)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrBootstrap)
	assert.ErrorContains(t, err, "insert rejected")
}

func TestBootstrapReadFailureIsFatal(t *testing.T) {
	devices := &memDevices{values: map[string]string{DeviceKey: uuid.NewString()}}
	profiles := &fakeProfiles{readErr: errors.New("connection refused")}

	_, err := Bootstrap(context.Background(), devices, profiles)
	assert.ErrorIs(t, err, ErrBootstrap)
	assert.Empty(t, profiles.created)
}

func TestBootstrapPersistFailureIsFatal(t *testing.T) {
	devices := &memDevices{setErr: errors.New("read-only")}
	profiles := &fakeProfiles{}

	_, err := Bootstrap(context.Background(), devices, profiles)
	assert.ErrorIs(t, err, ErrBootstrap)
	assert.Empty(t, profiles.created, "no profile without a persisted id")
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DeviceFileName)

	s, err := NewFileStore(path)
	require.NoError(t, err)
	_, ok := s.Get(DeviceKey)
	assert.False(t, ok)

	require.NoError(t, s.Set(DeviceKey, "abc"))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	v, ok := reopened.Get(DeviceKey)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
}

func TestFileStoreSetFailureKeepsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", DeviceFileName)
	s, err := NewFileStore(path)
	require.NoError(t, err)

	assert.Error(t, s.Set(DeviceKey, "abc"))
	_, ok := s.Get(DeviceKey)
	assert.False(t, ok)
}
