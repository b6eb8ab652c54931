package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/aidtrace/internal/config"
	"github.com/spec-kit/aidtrace/internal/domain"
	"github.com/spec-kit/aidtrace/internal/persistence"
	"github.com/spec-kit/aidtrace/internal/repository"
	apperrors "github.com/spec-kit/aidtrace/pkg/util"
)

func postgresForTest(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, config.PostgresConfig{DSN: dsn, MaxConns: 2}, zap.NewNop())
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(pg.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pg.DB(), persistence.DialectPostgres, zap.NewNop()))
	_, err = pg.Pool.Exec(ctx, `TRUNCATE dev_records, dev_users RESTART IDENTITY`)
	require.NoError(t, err)
	return pg.Pool
}

func backends() map[string]func(t *testing.T) *repository.Repositories {
	return map[string]func(t *testing.T) *repository.Repositories{
		"memory": func(*testing.T) *repository.Repositories { return repository.NewMemory() },
		"postgres": func(t *testing.T) *repository.Repositories {
			return repository.NewPostgres(postgresForTest(t))
		},
	}
}

func TestRecordRepository(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			repos := open(t)
			ctx := context.Background()

			first, err := repos.Projects.Create(ctx, domain.Record{"title": "Wells", "status": "pending", "organisation": int64(7)})
			require.NoError(t, err)
			second, err := repos.Projects.Create(ctx, domain.Record{"title": "Seeds", "status": "active", "organisation": int64(7)})
			require.NoError(t, err)

			firstID := domain.IntField(first, "id")
			assert.Positive(t, firstID)
			assert.Greater(t, domain.IntField(second, "id"), firstID)
			assert.NotEmpty(t, domain.StringField(first, "created_at"))

			got, err := repos.Projects.Get(ctx, firstID)
			require.NoError(t, err)
			assert.Equal(t, "Wells", domain.StringField(got, "title"))
			assert.Equal(t, int64(7), domain.IntField(got, "organisation"))

			updated, err := repos.Projects.Update(ctx, firstID, domain.Record{"status": "approved", "id": int64(99)})
			require.NoError(t, err)
			assert.Equal(t, "approved", domain.StringField(updated, "status"))
			assert.Equal(t, "Wells", domain.StringField(updated, "title"))
			assert.Equal(t, firstID, domain.IntField(updated, "id"))
			assert.Equal(t, domain.StringField(first, "created_at"), domain.StringField(updated, "created_at"))

			all, err := repos.Projects.List(ctx, nil)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "Seeds", domain.StringField(all[0], "title"))

			approved, err := repos.Projects.Count(ctx, func(r domain.Record) bool {
				return domain.StringField(r, "status") == "approved"
			})
			require.NoError(t, err)
			assert.Equal(t, 1, approved)

			none, err := repos.Funding.List(ctx, nil)
			require.NoError(t, err)
			assert.Empty(t, none)

			_, err = repos.Projects.Get(ctx, 4242)
			assert.ErrorIs(t, err, apperrors.ErrNotFound)
			_, err = repos.Projects.Update(ctx, 4242, domain.Record{"status": "x"})
			assert.ErrorIs(t, err, apperrors.ErrNotFound)
		})
	}
}

func TestUserRepository(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			repos := open(t)
			ctx := context.Background()

			org := int64(3)
			alice := &repository.Account{
				User:         domain.User{Username: "alice", Email: "alice@example.org", Role: domain.RoleDonor},
				PasswordHash: "hash-a",
			}
			require.NoError(t, repos.Users.Create(ctx, alice))
			assert.Positive(t, alice.ID)
			assert.False(t, alice.CreatedAt.IsZero())

			bob := &repository.Account{
				User:         domain.User{Username: "bob", Role: domain.RoleFieldOfficer, Organisation: &org},
				PasswordHash: "hash-b",
			}
			require.NoError(t, repos.Users.Create(ctx, bob))

			dup := &repository.Account{User: domain.User{Username: "alice", Role: domain.RoleDonor}, PasswordHash: "x"}
			assert.ErrorIs(t, repos.Users.Create(ctx, dup), repository.ErrUsernameTaken)

			got, err := repos.Users.GetByUsername(ctx, "bob")
			require.NoError(t, err)
			require.NotNil(t, got.Organisation)
			assert.Equal(t, org, *got.Organisation)
			assert.Equal(t, domain.RoleFieldOfficer, got.Role)

			got.IsApproved = true
			require.NoError(t, repos.Users.Update(ctx, got))
			reloaded, err := repos.Users.GetByID(ctx, bob.ID)
			require.NoError(t, err)
			assert.True(t, reloaded.IsApproved)
			assert.Equal(t, "hash-b", reloaded.PasswordHash)

			officers, err := repos.Users.List(ctx, func(a *repository.Account) bool {
				return a.Role == domain.RoleFieldOfficer
			})
			require.NoError(t, err)
			require.Len(t, officers, 1)
			assert.Equal(t, "bob", officers[0].Username)

			_, err = repos.Users.GetByID(ctx, 9999)
			assert.ErrorIs(t, err, apperrors.ErrNotFound)
			missing := &repository.Account{User: domain.User{ID: 9999, Username: "ghost", Role: domain.RoleDonor}}
			assert.ErrorIs(t, repos.Users.Update(ctx, missing), apperrors.ErrNotFound)
		})
	}
}
