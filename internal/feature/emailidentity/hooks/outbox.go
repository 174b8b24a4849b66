// Package hooks はusecase.Hookの具体的な実装を提供します。
package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"email_identity/internal/feature/emailidentity/domain/entity"
	"email_identity/internal/feature/emailidentity/domain/status"
	"email_identity/internal/feature/emailidentity/usecase"
)

// DefaultOutboxKey は確認メッセージを積むRedisリストのキーです。
const DefaultOutboxKey = "email_identity:confirm_outbox"

// ConfirmMessage はメーラーが確認リンクを送信するために必要な情報です。
type ConfirmMessage struct {
	Email       string    `json:"email"`
	HashedEmail string    `json:"hashed_email"`
	Code        string    `json:"code"`
	CreatedAt   time.Time `json:"created_at"`
}

// ConfirmOutbox は未確認の新規登録ごとにConfirmMessageをキューに積みます。
type ConfirmOutbox struct {
	rdb redis.Cmdable
	key string
	now func() time.Time
}

// NewConfirmOutbox はkeyのリストに書き込むアウトボックスを生成します（空の場合はDefaultOutboxKey）。
func NewConfirmOutbox(rdb redis.Cmdable, key string) *ConfirmOutbox {
	if key == "" {
		key = DefaultOutboxKey
	}
	return &ConfirmOutbox{rdb: rdb, key: key, now: time.Now}
}

// Key はリスト名を返します。
func (o *ConfirmOutbox) Key() string { return o.key }

// Hook は登録フックを返します。
// SUCCESS_EMAIL_REGISTERED以外のステータスと、確認済みとして作成されたユーザーは無視します。
func (o *ConfirmOutbox) Hook() usecase.Hook {
	return o.handle
}

func (o *ConfirmOutbox) handle(ctx context.Context, u *entity.User, st status.Status) error {
	if st != status.SuccessRegistered || u == nil || u.IsConfirmed() {
		return nil
	}

	b, err := json.Marshal(ConfirmMessage{
		Email:       u.Email,
		HashedEmail: u.HashedEmail,
		Code:        u.ConfirmToken,
		CreatedAt:   o.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode confirm message: %w", err)
	}
	if err := o.rdb.RPush(ctx, o.key, b).Err(); err != nil {
		return fmt.Errorf("failed to enqueue confirm message: %w", err)
	}
	return nil
}
