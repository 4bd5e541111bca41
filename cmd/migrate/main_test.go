package main

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct {
	calls   []string
	forced  int
	upErr   error
	version uint
	verErr  error
}

func (f *fakeMigrator) Up() error {
	f.calls = append(f.calls, "up")
	return f.upErr
}

func (f *fakeMigrator) Down() error {
	f.calls = append(f.calls, "down")
	return nil
}

func (f *fakeMigrator) Force(version int) error {
	f.calls = append(f.calls, "force")
	f.forced = version
	return nil
}

func (f *fakeMigrator) Version() (uint, bool, error) {
	f.calls = append(f.calls, "version")
	return f.version, false, f.verErr
}

func TestRunDefaultsToUp(t *testing.T) {
	m := &fakeMigrator{upErr: migrate.ErrNoChange}
	require.NoError(t, run(m, nil))
	assert.Equal(t, []string{"up"}, m.calls)
}

func TestRunUpFailure(t *testing.T) {
	m := &fakeMigrator{upErr: errors.New("dirty database")}
	err := run(m, []string{"up"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate up: dirty database")
}

func TestRunForce(t *testing.T) {
	m := &fakeMigrator{}
	require.NoError(t, run(m, []string{"force", "1"}))
	assert.Equal(t, 1, m.forced)

	assert.Error(t, run(m, []string{"force"}))
	assert.Error(t, run(m, []string{"force", "x"}))
}

func TestRunDownAndVersion(t *testing.T) {
	m := &fakeMigrator{version: 1}
	require.NoError(t, run(m, []string{"down"}))
	require.NoError(t, run(m, []string{"version"}))
	assert.Equal(t, []string{"down", "version"}, m.calls)

	m = &fakeMigrator{verErr: migrate.ErrNilVersion}
	require.NoError(t, run(m, []string{"version"}))
}

func TestRunUnknownCommand(t *testing.T) {
	assert.EqualError(t, run(&fakeMigrator{}, []string{"sideways"}), usage)
}
