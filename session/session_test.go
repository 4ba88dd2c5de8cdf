package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStorage map[string]string

func (m mapStorage) Get(key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m mapStorage) Set(key, value string) error {
	m[key] = value
	return nil
}

func (m mapStorage) Remove(key string) error {
	delete(m, key)
	return nil
}

func TestLoginPersistsAcrossManagers(t *testing.T) {
	storage := mapStorage{}
	m, err := NewManager(storage, false)
	require.NoError(t, err)
	assert.False(t, m.Current().LoggedIn())

	sess, err := m.Login("teacher@x.com", true)
	require.NoError(t, err)
	assert.Equal(t, Session{User: "teacher@x.com", IsAdmin: true}, sess)
	assert.Equal(t, "true", storage[IsAdminKey])

	restored, err := NewManager(storage, true)
	require.NoError(t, err)
	assert.Equal(t, Session{User: "teacher@x.com", IsAdmin: true, CloudActive: true}, restored.Current())
}

func TestLoginRejectsEmptyIdentifier(t *testing.T) {
	m, err := NewManager(mapStorage{}, false)
	require.NoError(t, err)

	_, err = m.Login("", true)
	assert.ErrorIs(t, err, ErrEmptyIdentifier)
	assert.False(t, m.Current().LoggedIn())
}

func TestLoginRejectsBlankIdentifier(t *testing.T) {
	storage := mapStorage{}
	m, err := NewManager(storage, false)
	require.NoError(t, err)

	_, err = m.Login(" \t ", false)
	assert.ErrorIs(t, err, ErrEmptyIdentifier)
	assert.False(t, m.Current().LoggedIn())
	assert.Empty(t, storage)
}

func TestLogoutClearsBothKeys(t *testing.T) {
	storage := mapStorage{}
	m, err := NewManager(storage, true)
	require.NoError(t, err)
	_, err = m.Login("teacher@x.com", true)
	require.NoError(t, err)

	require.NoError(t, m.Logout())

	assert.Equal(t, Session{CloudActive: true}, m.Current())
	assert.NotContains(t, storage, UserKey)
	assert.NotContains(t, storage, IsAdminKey)
}
