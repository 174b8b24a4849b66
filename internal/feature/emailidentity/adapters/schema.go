package adapters

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"email_identity/internal/feature/emailidentity/usecase"
)

// emailColumnSize は既存ユーザーテーブルのemailカラム幅に合わせています。
const emailColumnSize = 255

var primaryKeyDefinitions = map[string]string{
	"mysql":    "BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY",
	"postgres": "BIGSERIAL PRIMARY KEY",
	"sqlite":   "INTEGER PRIMARY KEY AUTOINCREMENT",
}

// PrepareSchema はユーザーテーブルがなければ作成し、不足しているハッシュカラムを
// VARCHAR(cfg.HashLength)として追加します。既存のカラムは変更しません。
func PrepareSchema(ctx context.Context, db *gorm.DB, cfg usecase.Config) error {
	db = db.WithContext(ctx)
	m := db.Migrator()

	if !m.HasTable(cfg.Table) {
		pk, ok := primaryKeyDefinitions[db.Dialector.Name()]
		if !ok {
			return fmt.Errorf("unsupported dialect %q", db.Dialector.Name())
		}
		ddl := fmt.Sprintf("CREATE TABLE ? (? %s, ? VARCHAR(%d) NOT NULL UNIQUE, ? VARCHAR(%d), ? VARCHAR(%d), ? VARCHAR(%d))",
			pk, emailColumnSize, cfg.HashLength, cfg.HashLength, cfg.HashLength)
		if err := db.Exec(ddl,
			clause.Table{Name: cfg.Table},
			clause.Column{Name: "id"},
			clause.Column{Name: cfg.EmailField},
			clause.Column{Name: cfg.HashEmailField},
			clause.Column{Name: cfg.HashPasswordField},
			clause.Column{Name: cfg.ConfirmField},
		).Error; err != nil {
			return fmt.Errorf("failed to create table %s: %w", cfg.Table, err)
		}
		slog.Info("created identity table", "table", cfg.Table)
		return nil
	}

	for _, col := range []string{cfg.ConfirmField, cfg.HashEmailField, cfg.HashPasswordField} {
		if m.HasColumn(cfg.Table, col) {
			continue
		}
		ddl := fmt.Sprintf("ALTER TABLE ? ADD ? VARCHAR(%d)", cfg.HashLength)
		if err := db.Exec(ddl, clause.Table{Name: cfg.Table}, clause.Column{Name: col}).Error; err != nil {
			return fmt.Errorf("failed to add column %s.%s: %w", cfg.Table, col, err)
		}
		slog.Info("added identity column", "table", cfg.Table, "column", col)
	}
	return nil
}
