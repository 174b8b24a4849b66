// Package status はemailidentityの操作が返す結果コードの閉じた集合を定義します。
package status

// Status は登録・認証・確認操作の結果です。
// ゼロ値のUnknownは完了した操作からは返されません。
type Status int

const (
	Unknown Status = iota

	SuccessRegistered
	ErrorRegisterFound
	ErrorRegisterHandler

	SuccessAuthorize
	ErrorAuthorizeNotFound
	ErrorAuthorizeWrongPassword
	ErrorAuthorizeHandler

	SuccessConfirmed
	SuccessConfirmedAlready
	ErrorConfirmNotFound
	ErrorConfirmMismatch
	ErrorConfirmHandler

	// ErrorStore はレコード不在以外の理由でストアが失敗したことを表します。
	ErrorStore
)

var labels = map[Status]string{
	Unknown:                     "UNKNOWN",
	SuccessRegistered:           "SUCCESS_EMAIL_REGISTERED",
	ErrorRegisterFound:          "ERROR_EMAIL_REGISTER_FOUND",
	ErrorRegisterHandler:        "ERROR_EMAIL_REGISTER_HANDLER",
	SuccessAuthorize:            "SUCCESS_EMAIL_AUTHORIZE",
	ErrorAuthorizeNotFound:      "ERROR_EMAIL_AUTHORIZE_NOTFOUND",
	ErrorAuthorizeWrongPassword: "ERROR_EMAIL_AUTHORIZE_WRONGPWD",
	ErrorAuthorizeHandler:       "ERROR_EMAIL_AUTHORIZE_HANDLER",
	SuccessConfirmed:            "SUCCESS_EMAIL_CONFIRMED",
	SuccessConfirmedAlready:     "SUCCESS_EMAIL_CONFIRMED_ALREADY",
	ErrorConfirmNotFound:        "ERROR_EMAIL_CONFIRM_NOTFOUND",
	ErrorConfirmMismatch:        "ERROR_EMAIL_CONFIRM_MISMATCH",
	ErrorConfirmHandler:         "ERROR_EMAIL_CONFIRM_HANDLER",
	ErrorStore:                  "ERROR_EMAIL_STORE",
}

// String はクライアントに送る表示ラベルを返します。
func (s Status) String() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return labels[Unknown]
}

// IsSuccess はsが成功系かどうかを返します。
func (s Status) IsSuccess() bool {
	switch s {
	case SuccessRegistered, SuccessAuthorize, SuccessConfirmed, SuccessConfirmedAlready:
		return true
	}
	return false
}

// IsHandlerFailure はsがフックの失敗によるものかどうかを返します。
func (s Status) IsHandlerFailure() bool {
	switch s {
	case ErrorRegisterHandler, ErrorAuthorizeHandler, ErrorConfirmHandler:
		return true
	}
	return false
}

// Parse は表示ラベルに対応するStatusを返します。未知のラベルでは2番目の戻り値がfalseです。
func Parse(label string) (Status, bool) {
	for s, l := range labels {
		if l == label && s != Unknown {
			return s, true
		}
	}
	return Unknown, false
}

// All はUnknownを除くすべてのステータスを宣言順に返します。
func All() []Status {
	out := make([]Status, 0, int(ErrorStore))
	for s := SuccessRegistered; s <= ErrorStore; s++ {
		out = append(out, s)
	}
	return out
}
