package hooks

import (
	"context"
	"log/slog"

	"email_identity/internal/feature/emailidentity/domain/entity"
	"email_identity/internal/feature/emailidentity/domain/status"
	"email_identity/internal/feature/emailidentity/usecase"
)

// Chain はフックを順に実行し、最初のエラーで停止します。nilのフックはスキップします。
// 有効なフックが残らない場合はnilを返します。
func Chain(hs ...usecase.Hook) usecase.Hook {
	var active []usecase.Hook
	for _, h := range hs {
		if h != nil {
			active = append(active, h)
		}
	}
	switch len(active) {
	case 0:
		return nil
	case 1:
		return active[0]
	}
	return func(ctx context.Context, u *entity.User, st status.Status) error {
		for _, h := range active {
			if err := h(ctx, u, st); err != nil {
				return err
			}
		}
		return nil
	}
}

// Log は操作の結果を成功時はinfo、失敗時はwarnで記録します。エラーは返しません。
func Log(logger *slog.Logger, operation string) usecase.Hook {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, u *entity.User, st status.Status) error {
		attrs := []any{"operation", operation, "status", st.String()}
		if u != nil {
			attrs = append(attrs, "user_id", u.ID)
		}
		if st.IsSuccess() {
			logger.InfoContext(ctx, "email identity outcome", attrs...)
		} else {
			logger.WarnContext(ctx, "email identity outcome", attrs...)
		}
		return nil
	}
}
