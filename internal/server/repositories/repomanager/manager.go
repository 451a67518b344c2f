// Package repomanager wires repository implementations to database handles.
// Services ask the manager for repositories bound either to the pooled
// *sql.DB or to an open transaction.
package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/techconhub/messaging/internal/dbx"
	"github.com/techconhub/messaging/internal/server/migrations"
	"github.com/techconhub/messaging/internal/server/repositories/conversations"
	"github.com/techconhub/messaging/internal/server/repositories/messages"
)

// RepositoryManager hands out repositories bound to a DBTX.
type RepositoryManager interface {
	Conversations(db dbx.DBTX) conversations.Repository
	Messages(db dbx.DBTX) messages.Repository
}

// PostgresRepositoryManager is the pgx-backed RepositoryManager.
type PostgresRepositoryManager struct{}

// NewPostgresRepositoryManager returns a manager for pgx-backed repositories.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Conversations(db dbx.DBTX) conversations.Repository {
	return conversations.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Messages(db dbx.DBTX) messages.Repository {
	return messages.NewPostgresRepository(db)
}

// RunMigrations applies pending schema migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
