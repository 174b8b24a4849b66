// Package adapters はemailidentityフィーチャーのストア実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"email_identity/internal/feature/emailidentity/domain/entity"
	"email_identity/internal/feature/emailidentity/usecase"
)

const (
	mysqlDuplicateEntry    = 1062
	postgresUniqueViolated = "23505"
)

// userRow は検索結果のスキャン先です。
// テーブルのカラム名は設定で変わるため、固定の別名に揃えて読み込みます。
type userRow struct {
	ID             uint
	Email          string
	HashedEmail    string
	HashedPassword string
	ConfirmToken   string
}

func (r userRow) toEntity() *entity.User {
	return &entity.User{
		ID:             r.ID,
		Email:          r.Email,
		HashedEmail:    r.HashedEmail,
		HashedPassword: r.HashedPassword,
		ConfirmToken:   r.ConfirmToken,
	}
}

// userGorm はusecase.UserRepositoryのGORM実装です。
// カラム名はusecase.Configから取得します。
type userGorm struct {
	db  *gorm.DB
	cfg usecase.Config
}

// userGormがUserRepositoryを実装していることをコンパイル時に確認
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm はcfgで指定されたテーブルのストアを生成します。
func NewUserGorm(db *gorm.DB, cfg usecase.Config) *userGorm {
	return &userGorm{db: db, cfg: cfg}
}

// FindOne はfieldのカラムがvalueに一致する最初のレコードを返します。
// 一致しない場合はusecase.ErrUserNotFoundを返します。
func (r *userGorm) FindOne(ctx context.Context, field entity.Field, value string) (*entity.User, error) {
	col := r.cfg.Column(field)
	if col == "" {
		return nil, fmt.Errorf("unknown lookup field %s", field)
	}

	var row userRow
	err := r.selectRow(r.db.WithContext(ctx)).
		Where(clause.Eq{Column: clause.Column{Name: col}, Value: value}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return row.toEntity(), nil
}

// Save はIDが0なら挿入し、それ以外はカラムを更新します。
// 既存のメールアドレスを挿入した場合はusecase.ErrEmailAlreadyExistsを返します。
func (r *userGorm) Save(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	if u.ID == 0 {
		return r.insert(ctx, u)
	}
	return r.db.WithContext(ctx).
		Table(r.cfg.Table).
		Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: u.ID}).
		Updates(r.values(u)).Error
}

func (r *userGorm) insert(ctx context.Context, u *entity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(r.cfg.Table).Create(r.values(u)).Error; err != nil {
			if isDuplicateKey(err) {
				return usecase.ErrEmailAlreadyExists
			}
			return err
		}

		// 一意なemailカラムから採番されたIDを読み戻す
		var row userRow
		if err := r.selectRow(tx).
			Where(clause.Eq{Column: clause.Column{Name: r.cfg.EmailField}, Value: u.Email}).
			Take(&row).Error; err != nil {
			return fmt.Errorf("failed to read back inserted user: %w", err)
		}
		u.ID = row.ID
		return nil
	})
}

func (r *userGorm) selectRow(db *gorm.DB) *gorm.DB {
	return db.Table(r.cfg.Table).Select(
		"?, ? AS email, ? AS hashed_email, ? AS hashed_password, ? AS confirm_token",
		clause.Column{Name: "id"},
		clause.Column{Name: r.cfg.EmailField},
		clause.Column{Name: r.cfg.HashEmailField},
		clause.Column{Name: r.cfg.HashPasswordField},
		clause.Column{Name: r.cfg.ConfirmField},
	)
}

func (r *userGorm) values(u *entity.User) map[string]any {
	return map[string]any{
		r.cfg.EmailField:        u.Email,
		r.cfg.HashEmailField:    u.HashedEmail,
		r.cfg.HashPasswordField: u.HashedPassword,
		r.cfg.ConfirmField:      u.ConfirmToken,
	}
}

// isDuplicateKey はerrが対応ドライバーのいずれかによる一意制約違反かどうかを返します。
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == postgresUniqueViolated {
		return true
	}
	return false
}
