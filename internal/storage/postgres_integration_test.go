//go:build integration

package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/magabrotheeeer/cropyield/internal/models"
)

func setupPostgres(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var s *Storage
	for range 10 {
		s, err = New(ctx, DriverPostgres, connStr)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.CreateUsersTable(ctx))
	return s
}

func TestPostgresIntegration_Users(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	require.NoError(t, s.InsertUser(ctx, models.User{Username: "alice", PasswordHash: "h1", Email: "a@x.com"}))

	err := s.InsertUser(ctx, models.User{Username: "alice", PasswordHash: "h2", Email: "b@y.com"})
	assert.True(t, errors.Is(err, ErrUserExists), "got %v", err)

	require.NoError(t, s.CreateUsersTable(ctx))

	hash, err := s.GetPasswordHash(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "h1", hash)

	_, err = s.GetPasswordHash(ctx, "ghost")
	assert.True(t, errors.Is(err, ErrUserNotFound))
}

func TestPostgresIntegration_ConcurrentRegistration(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	const workers = 20
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		oks int
	)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.InsertUser(ctx, models.User{Username: "race", PasswordHash: fmt.Sprint(i), Email: "r@x.com"})
			if err == nil {
				mu.Lock()
				oks++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, ErrUserExists), "got %v", err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, oks)
}
