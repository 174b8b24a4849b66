package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"email_identity/internal/feature/emailidentity/domain/entity"
	"email_identity/internal/feature/emailidentity/domain/status"
)

// UserRepository はユーザーレコードを保持するストアを抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// FindOne はfieldがvalueに一致する最初のレコードを返します。
	// 一致しない場合はErrUserNotFoundを返します。
	FindOne(ctx context.Context, field entity.Field, value string) (*entity.User, error)

	// Save はIDが0なら挿入し、それ以外は更新します。
	// 既存のメールアドレスを挿入した場合はErrEmailAlreadyExistsを返します。
	Save(ctx context.Context, user *entity.User) error
}

// Hasher はメールアドレスと確認コードのシードをハッシュ化します。
type Hasher interface {
	Hash(value string) string
}

// PasswordGenerator はパスワード省略時の登録用にランダムなハッシュ済みパスワードを生成します。
type PasswordGenerator interface {
	Generate() string
}

// Hook は操作のステータス確定後に呼び出されます。
// レコードが見つからなかった場合、userはnilです。
// エラーを返すとステータスは操作ごとのハンドラー失敗コードに置き換わります。
type Hook func(ctx context.Context, user *entity.User, st status.Status) error

// Option はEmailUsecaseをカスタマイズします。
type Option func(*EmailUsecase)

// WithRegisterHook はRegister後に実行するフックを設定します。
func WithRegisterHook(h Hook) Option {
	return func(u *EmailUsecase) { u.registerHook = h }
}

// WithConfirmHook はConfirm後に実行するフックを設定します。
func WithConfirmHook(h Hook) Option {
	return func(u *EmailUsecase) { u.confirmHook = h }
}

// WithAuthorizeHook はAuthorize後に実行するフックを設定します。
func WithAuthorizeHook(h Hook) Option {
	return func(u *EmailUsecase) { u.authorizeHook = h }
}

// WithClock は確認コードのシードに使う時刻関数を注入します。
func WithClock(now func() time.Time) Option {
	return func(u *EmailUsecase) {
		if now != nil {
			u.now = now
		}
	}
}

// WithConfirmLookup はConfirmが検索に使うカラムを選択します。
func WithConfirmLookup(l ConfirmLookup) Option {
	return func(u *EmailUsecase) { u.confirmLookup = l }
}

// EmailUsecase はメールアドレスによる登録・確認・認証を実装します。
type EmailUsecase struct {
	users     UserRepository
	hasher    Hasher
	passwords PasswordGenerator

	registerHook  Hook
	confirmHook   Hook
	authorizeHook Hook

	confirmLookup ConfirmLookup
	now           func() time.Time
}

// NewEmailUsecase は指定されたストアを使うEmailUsecaseを生成します。
func NewEmailUsecase(users UserRepository, hasher Hasher, passwords PasswordGenerator, opts ...Option) *EmailUsecase {
	u := &EmailUsecase{
		users:         users,
		hasher:        hasher,
		passwords:     passwords,
		confirmLookup: ConfirmLookupHashEmail,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Authorize はハッシュ化メールアドレスで見つけたユーザーのハッシュ化パスワードを照合します。
func (u *EmailUsecase) Authorize(ctx context.Context, hashedEmail, hashedPassword string) (status.Status, *entity.User) {
	var st status.Status

	user, err := u.users.FindOne(ctx, entity.FieldHashedEmail, hashedEmail)
	switch {
	case errors.Is(err, ErrUserNotFound):
		st = status.ErrorAuthorizeNotFound
	case err != nil:
		slog.Error("authorize lookup failed", "error", err)
		st = status.ErrorStore
	case user.HashedPassword == hashedPassword:
		st = status.SuccessAuthorize
	default:
		st = status.ErrorAuthorizeWrongPassword
	}

	return u.runHook(ctx, u.authorizeHook, "authorize", user, st, status.ErrorAuthorizeHandler), user
}

// Register はメールアドレスが未登録の場合にユーザーを作成します。
// hashedPasswordが空の場合はランダムなパスワードを生成します。
// validがtrueの場合は確認済みとして保存します。
func (u *EmailUsecase) Register(ctx context.Context, email, hashedPassword string, valid bool) (status.Status, *entity.User) {
	var st status.Status

	// 1. 既存ユーザーの確認
	user, err := u.users.FindOne(ctx, entity.FieldEmail, email)
	switch {
	case err == nil:
		st = status.ErrorRegisterFound
	case !errors.Is(err, ErrUserNotFound):
		slog.Error("register lookup failed", "email", email, "error", err)
		st = status.ErrorStore
	default:
		// 2. ユーザーの作成と保存
		user = u.newUser(email, hashedPassword, valid)
		if err := u.users.Save(ctx, user); err != nil {
			if errors.Is(err, ErrEmailAlreadyExists) {
				// 同じメールアドレスの同時登録に競り負けた
				st, user = status.ErrorRegisterFound, nil
			} else {
				slog.Error("register save failed", "email", email, "error", err)
				st, user = status.ErrorStore, nil
			}
			break
		}
		st = status.SuccessRegistered
	}

	// 3. フックの実行
	return u.runHook(ctx, u.registerHook, "register", user, st, status.ErrorRegisterHandler), user
}

// Confirm はhashedCodeが保留中のトークンと一致した場合にメールアドレスを確認済みにします。
func (u *EmailUsecase) Confirm(ctx context.Context, hashedEmail, hashedCode string) (status.Status, *entity.User) {
	var st status.Status

	user, err := u.users.FindOne(ctx, u.confirmLookup.Field(), hashedEmail)
	switch {
	case errors.Is(err, ErrUserNotFound):
		st = status.ErrorConfirmNotFound
	case err != nil:
		slog.Error("confirm lookup failed", "error", err)
		st = status.ErrorStore
	case user.IsConfirmed():
		st = status.SuccessConfirmedAlready
	case user.ConfirmToken == hashedCode:
		pending := user.ConfirmToken
		user.ConfirmToken = entity.ConfirmedSentinel
		if err := u.users.Save(ctx, user); err != nil {
			slog.Error("confirm save failed", "user_id", user.ID, "error", err)
			user.ConfirmToken = pending
			st = status.ErrorStore
			break
		}
		st = status.SuccessConfirmed
	default:
		st = status.ErrorConfirmMismatch
	}

	return u.runHook(ctx, u.confirmHook, "confirm", user, st, status.ErrorConfirmHandler), user
}

func (u *EmailUsecase) newUser(email, hashedPassword string, valid bool) *entity.User {
	user := &entity.User{
		Email:       email,
		HashedEmail: u.hasher.Hash(email),
	}

	if hashedPassword != "" {
		user.HashedPassword = hashedPassword
	} else {
		user.HashedPassword = u.passwords.Generate()
	}

	if valid {
		user.ConfirmToken = entity.ConfirmedSentinel
	} else {
		user.ConfirmToken = u.hasher.Hash(email + strconv.FormatInt(u.now().Unix(), 10))
	}
	return user
}

// runHook はフックが設定されていれば実行し、エラー時はfailedを返します。
func (u *EmailUsecase) runHook(ctx context.Context, hook Hook, op string, user *entity.User, st, failed status.Status) status.Status {
	if hook == nil {
		return st
	}
	if err := hook(ctx, user, st); err != nil {
		slog.Warn("email hook failed", "operation", op, "status", st.String(), "error", err)
		return failed
	}
	return st
}
