// Package usecase はemailidentityフィーチャーのビジネスロジックを実装します。
package usecase

import "errors"

var (
	// ErrUserNotFound は検索条件に一致するレコードがない場合にUserRepositoryが返します。
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists は既に使われているメールアドレスを挿入しようとした場合にUserRepositoryが返します。
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrInvalidConfig は設定が利用できない場合に返されます。
	ErrInvalidConfig = errors.New("invalid identity config")
)
