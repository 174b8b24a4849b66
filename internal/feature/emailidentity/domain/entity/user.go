// Package entity はemailidentityフィーチャーのドメインエンティティを定義します。
package entity

// ConfirmedSentinel はメール確認後にConfirmTokenへ保存される値です。
const ConfirmedSentinel = "1"

// Field はユーザーレコードの検索カラムを識別します。
// 実際のカラム名はストアが設定から解決します。
type Field int

const (
	FieldEmail Field = iota
	FieldHashedEmail
	FieldHashedPassword
	FieldConfirmToken
)

// String はログやキャッシュキーに使うフィールド名を返します。
func (f Field) String() string {
	switch f {
	case FieldEmail:
		return "email"
	case FieldHashedEmail:
		return "hashed_email"
	case FieldHashedPassword:
		return "hashed_password"
	case FieldConfirmToken:
		return "confirm_token"
	default:
		return "unknown"
	}
}

// User はメールアドレスで登録されたユーザーを表します。
type User struct {
	// ID はストアが割り当てる主キー。0は未保存を意味する
	ID uint `json:"id"`

	// Email は平文のメールアドレス（全ユーザーで一意）
	Email string `json:"email"`

	// HashedEmail はhash(Email)。認証・確認時の検索キー
	HashedEmail string `json:"hashed_email"`

	// HashedPassword はハッシュ化された認証情報。等価比較のみに使う
	HashedPassword string `json:"hashed_password"`

	// ConfirmToken は保留中の確認ハッシュ、確認後はConfirmedSentinel
	ConfirmToken string `json:"confirm_token"`
}

// IsConfirmed はメールアドレスが確認済みかどうかを返します。
func (u *User) IsConfirmed() bool {
	return u.ConfirmToken == ConfirmedSentinel
}

// Value は指定されたフィールドの値を返します。
func (u *User) Value(f Field) string {
	switch f {
	case FieldEmail:
		return u.Email
	case FieldHashedEmail:
		return u.HashedEmail
	case FieldHashedPassword:
		return u.HashedPassword
	case FieldConfirmToken:
		return u.ConfirmToken
	default:
		return ""
	}
}
