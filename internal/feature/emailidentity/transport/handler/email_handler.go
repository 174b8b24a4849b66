// Package handler はemailidentityフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"email_identity/internal/api"
	"email_identity/internal/feature/emailidentity/domain/entity"
	"email_identity/internal/feature/emailidentity/domain/status"
	jwtmw "email_identity/internal/platform/jwt"
)

// authorize・confirmエンドポイントのパラメーター名
const (
	ParamHashEmail    = "hashEmail"
	ParamHashPassword = "hashPassword"
	ParamCode         = "code"
)

// EmailUsecase はハンドラーが使う操作を定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type EmailUsecase interface {
	Register(ctx context.Context, email, hashedPassword string, valid bool) (status.Status, *entity.User)
	Authorize(ctx context.Context, hashedEmail, hashedPassword string) (status.Status, *entity.User)
	Confirm(ctx context.Context, hashedEmail, hashedCode string) (status.Status, *entity.User)
}

// TokenIssuer は認証済みユーザーのアクセストークンに署名します。
type TokenIssuer interface {
	GenerateToken(userID uint, email string) (string, error)
}

// Recorder は操作結果を集計します。
type Recorder interface {
	Observe(operation, status string)
}

// Option はEmailHandlerをカスタマイズします。
type Option func(*EmailHandler)

// WithTokenIssuer を指定すると、Authorize成功時にトークンを返します。
func WithTokenIssuer(t TokenIssuer) Option {
	return func(h *EmailHandler) { h.tokens = t }
}

// WithRecorder はすべての結果を記録します。
func WithRecorder(r Recorder) Option {
	return func(h *EmailHandler) { h.metrics = r }
}

// EmailHandler は登録・認証・確認のHTTPリクエストを処理します。
type EmailHandler struct {
	identity EmailUsecase

	// 登録フォームのフィールド名はストアのカラム名と同じ
	emailField    string
	passwordField string

	tokens  TokenIssuer
	metrics Recorder
}

// NewEmailHandler はEmailHandlerの新しいインスタンスを生成します。
// emailFieldとpasswordFieldは登録フォームのフィールド名です。
func NewEmailHandler(identity EmailUsecase, emailField, passwordField string, opts ...Option) *EmailHandler {
	h := &EmailHandler{
		identity:      identity,
		emailField:    emailField,
		passwordField: passwordField,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// params はリクエスト値と、不足している値の診断メッセージを集めます。
type params struct {
	diag    string
	missing bool
}

func (p *params) miss(name string) {
	p.diag += "\n[" + name + "] field is not passed"
	p.missing = true
}

func (p *params) empty(name string) {
	p.diag += "\n[" + name + "] field is empty"
	p.missing = true
}

// form は必須かつ空でないPOSTフォームの値を読み取ります。
func (p *params) form(c *gin.Context, name string) string {
	v, ok := c.GetPostForm(name)
	switch {
	case !ok:
		p.miss(name)
	case v == "":
		p.empty(name)
	}
	return v
}

// lookup はパス、POSTボディ、クエリ文字列の順にnameを読み取ります。
func (p *params) lookup(c *gin.Context, name string) string {
	if v := c.Param(name); v != "" {
		return v
	}
	if v, ok := c.GetPostForm(name); ok {
		return v
	}
	if v, ok := c.GetQuery(name); ok {
		return v
	}
	p.miss(name)
	return ""
}

// Register は POST /email/register を処理します。
func (h *EmailHandler) Register(c *gin.Context) {
	var p params
	email := p.form(c, h.emailField)
	password := p.form(c, h.passwordField)

	resp := api.EmailResponse{Status: api.StatusFailed, EmailError: p.diag}
	if !p.missing {
		st, _ := h.identity.Register(c.Request.Context(), email, password, false)
		h.finish("register", st, &resp, st == status.SuccessRegistered)
		slog.Info("email register", "email", email, "status", st.String(), "remote_addr", c.ClientIP())
	}
	c.JSON(http.StatusOK, resp)
}

// Authorize は /email/authorize を処理します。
// TokenIssuerが設定されていれば、成功時にトークンを付与します。
func (h *EmailHandler) Authorize(c *gin.Context) {
	var p params
	hashEmail := p.lookup(c, ParamHashEmail)
	hashPassword := p.lookup(c, ParamHashPassword)

	resp := api.EmailResponse{Status: api.StatusFailed, EmailError: p.diag}
	if !p.missing {
		st, user := h.identity.Authorize(c.Request.Context(), hashEmail, hashPassword)
		ok := st == status.SuccessAuthorize
		h.finish("authorize", st, &resp, ok)
		if ok && h.tokens != nil && user != nil {
			token, err := h.tokens.GenerateToken(user.ID, user.Email)
			if err != nil {
				slog.Error("failed to issue token", "user_id", user.ID, "error", err)
			} else {
				resp.Token = token
			}
		}
		slog.Info("email authorize", "status", st.String(), "remote_addr", c.ClientIP())
	}
	c.JSON(http.StatusOK, resp)
}

// Confirm は /email/confirm を処理します。
func (h *EmailHandler) Confirm(c *gin.Context) {
	var p params
	hashEmail := p.lookup(c, ParamHashEmail)
	code := p.lookup(c, ParamCode)

	resp := api.EmailResponse{Status: api.StatusFailed, EmailError: p.diag}
	if !p.missing {
		st, _ := h.identity.Confirm(c.Request.Context(), hashEmail, code)
		h.finish("confirm", st, &resp, st == status.SuccessConfirmed || st == status.SuccessConfirmedAlready)
		slog.Info("email confirm", "status", st.String(), "remote_addr", c.ClientIP())
	}
	c.JSON(http.StatusOK, resp)
}

// Me は jwtmw.AuthRequired の後段で GET /email/me を処理します。
func (h *EmailHandler) Me(c *gin.Context) {
	id, ok := c.Get(jwtmw.ContextUserID)
	userID, isUint := id.(uint)
	if !ok || !isUint {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthenticated"})
		return
	}
	c.JSON(http.StatusOK, api.MeResponse{UserID: userID, Email: c.GetString(jwtmw.ContextEmail)})
}

func (h *EmailHandler) finish(op string, st status.Status, resp *api.EmailResponse, ok bool) {
	if ok {
		resp.Status = api.StatusSuccess
	}
	resp.EmailStatus = st.String()
	if h.metrics != nil {
		h.metrics.Observe(op, st.String())
	}
}
