package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/eduapp/internal/model"
	"github.com/hitoshi/eduapp/internal/session"
)

// maxResponseBytes はレスポンスボディの読み取り上限。
const maxResponseBytes = 1 << 20

// ClientConfig はClientの設定。
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
	// HTTPClient を指定した場合はそれを使う。Jarが未設定ならセッション用のJarを設定する。
	HTTPClient *http.Client
}

// Client はeduapp APIに対するAuthとDocumentsの実装。
// セッションCookieはプロセス内のCookie Jarにのみ保持する。
type Client struct {
	baseURL  string
	http     *http.Client
	notifier *Notifier
	logger   *slog.Logger
}

var (
	_ Auth      = (*Client)(nil)
	_ Documents = (*Client)(nil)
)

// NewClient はClientを生成する。
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("backend base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid backend base URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Jar == nil {
		httpClient.Jar = jar
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     httpClient,
		notifier: NewNotifier(),
		logger:   logger,
	}, nil
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type documentRequest struct {
	Fields model.Fields `json:"fields"`
}

type documentResponse struct {
	Collection string       `json:"collection"`
	Key        string       `json:"key"`
	Fields     model.Fields `json:"fields"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

type errorBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// Subscribe はセッション変更のリスナーを登録する。
func (c *Client) Subscribe(l session.Listener) func() {
	return c.notifier.Subscribe(l)
}

// Current は現在のセッションを返す。
func (c *Client) Current() session.Session {
	return c.notifier.Current()
}

// SignIn はメールアドレスとパスワードでサインインする。
func (c *Client) SignIn(ctx context.Context, email, password string) (session.Session, error) {
	return c.authenticate(ctx, "/auth/signin", http.StatusOK, email, password)
}

// CreateAccount はアカウントを作成し、そのままサインイン状態にする。
func (c *Client) CreateAccount(ctx context.Context, email, password string) (session.Session, error) {
	return c.authenticate(ctx, "/auth/signup", http.StatusCreated, email, password)
}

func (c *Client) authenticate(ctx context.Context, path string, wantStatus int, email, password string) (session.Session, error) {
	var user userResponse
	err := c.do(ctx, http.MethodPost, path, credentialsRequest{Email: email, Password: password}, wantStatus, &user)
	if err != nil {
		return session.Anonymous(), err
	}

	s := session.Authenticated(user.ID, user.Email)
	c.notifier.Set(s)
	return s, nil
}

// SignOut はサインアウトする。
// 通信に失敗した場合はセッションを保持したままエラーを返す。
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/signout", nil, http.StatusNoContent, nil); err != nil {
		return err
	}
	c.notifier.Set(session.Anonymous())
	return nil
}

// ChangePassword はパスワードを変更する。
func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	req := changePasswordRequest{CurrentPassword: currentPassword, NewPassword: newPassword}
	return c.do(ctx, http.MethodPost, "/api/account/password", req, http.StatusNoContent, nil)
}

// Get はドキュメントを取得する。存在しない場合は (nil, nil) を返す。
func (c *Client) Get(ctx context.Context, collection, key string) (*model.Document, error) {
	var resp documentResponse
	err := c.do(ctx, http.MethodGet, documentPath(collection, key), nil, http.StatusOK, &resp)
	if model.HasCode(err, model.ErrCodeDocumentNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &model.Document{
		Collection: resp.Collection,
		Key:        resp.Key,
		Fields:     resp.Fields,
		CreatedAt:  resp.CreatedAt,
		UpdatedAt:  resp.UpdatedAt,
	}, nil
}

// Set はドキュメントを作成または置き換える。
func (c *Client) Set(ctx context.Context, collection, key string, fields model.Fields) error {
	return c.do(ctx, http.MethodPut, documentPath(collection, key), documentRequest{Fields: fields}, http.StatusNoContent, nil)
}

// Update は既存ドキュメントにフィールドをマージする。
func (c *Client) Update(ctx context.Context, collection, key string, fields model.Fields) error {
	return c.do(ctx, http.MethodPatch, documentPath(collection, key), documentRequest{Fields: fields}, http.StatusNoContent, nil)
}

func documentPath(collection, key string) string {
	return "/api/documents/" + url.PathEscape(collection) + "/" + url.PathEscape(key)
}

// do はJSONリクエストを送り、wantStatus以外のレスポンスをエラーに変換する。
// 認証済みの状態で401 UNAUTHORIZEDを受け取った場合はセッション失効として未認証に遷移する。
func (c *Client) do(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, maxResponseBytes)

	if resp.StatusCode == wantStatus {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(limited).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response of %s %s: %w", method, path, err)
		}
		return nil
	}

	apiErr := decodeAPIError(limited, resp.StatusCode)
	if resp.StatusCode == http.StatusUnauthorized && model.HasCode(apiErr, model.ErrCodeUnauthorized) {
		c.expire(method, path)
	}
	return apiErr
}

// expire は認証済みセッションを失効させる。
func (c *Client) expire(method, path string) {
	if !c.notifier.Current().IsAuthenticated() {
		return
	}
	c.logger.Warn("session expired",
		slog.String("method", method),
		slog.String("path", path),
	)
	c.notifier.Set(session.Anonymous())
}

// decodeAPIError はエラーレスポンスを*model.APIErrorに復元する。
// 統一フォーマットでない場合はステータスコードのみを含むエラーを返す。
func decodeAPIError(r io.Reader, statusCode int) error {
	var body errorBody
	if err := json.NewDecoder(r).Decode(&body); err != nil || body.Code == "" {
		return fmt.Errorf("unexpected response status: %d", statusCode)
	}
	return &model.APIError{
		Code:     body.Code,
		Message:  body.Message,
		Category: body.Category,
		Action:   body.Action,
	}
}
