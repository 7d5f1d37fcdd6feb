// Package api содержит HTTP-клиент сервера обновлений для SDK и CLI публикации.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gronxb/hot-updater-sub000/models"
)

// defaultTimeout - таймаут HTTP клиента по умолчанию.
const defaultTimeout = 30 * time.Second

// Ошибки клиента.
var (
	// ErrAuthorization сигнализирует об ошибке авторизации (401).
	ErrAuthorization = errors.New("ошибка авторизации")
	// ErrNotFound сигнализирует об отсутствии ресурса (404).
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict сигнализирует о дубликате (409).
	ErrConflict = errors.New("ресурс уже существует")
)

// UpdateQuery - общие параметры проверки обновления.
// Пустые Channel, MinBundleID и BundleID заменяются значениями по умолчанию.
type UpdateQuery struct {
	Platform    models.Platform
	Channel     string
	MinBundleID models.BundleID
	BundleID    models.BundleID
	DeviceID    string
}

// ListOptions - фильтр и страница списка бандлов.
type ListOptions struct {
	Channel  string
	Platform models.Platform
	Limit    int
	Offset   int
}

// Client определяет интерфейс для взаимодействия с API сервера обновлений.
type Client interface {
	// CheckAppVersion проверяет обновление по версии приложения. nil - обновлять нечего.
	CheckAppVersion(ctx context.Context, q UpdateQuery, appVersion string) (*models.AppUpdateInfo, error)
	// CheckFingerprint проверяет обновление по отпечатку сборки. nil - обновлять нечего.
	CheckFingerprint(ctx context.Context, q UpdateQuery, fingerprintHash string) (*models.AppUpdateInfo, error)
	// TrackEvent отправляет событие устройства.
	TrackEvent(ctx context.Context, event models.DeviceEvent) error

	// Login аутентифицирует администратора и сохраняет JWT токен.
	Login(ctx context.Context, username, password string) (string, error)
	// SetAuthToken устанавливает JWT токен для аутентифицированных запросов.
	SetAuthToken(token string)

	ListBundles(ctx context.Context, opts ListOptions) (*models.BundleList, error)
	GetBundle(ctx context.Context, id models.BundleID) (*models.Bundle, error)
	CreateBundles(ctx context.Context, bundles ...models.Bundle) error
	UpdateBundle(ctx context.Context, id models.BundleID, patch models.BundlePatch) (*models.Bundle, error)
	DeleteBundle(ctx context.Context, id models.BundleID) error
	UploadArchive(ctx context.Context, id models.BundleID, data io.Reader, size int64) (*models.Bundle, error)
	Channels(ctx context.Context) ([]string, error)
	RolloutStats(ctx context.Context, id models.BundleID) (*models.RolloutStats, error)
}

// httpClient реализует интерфейс Client для взаимодействия с сервером по HTTP.
type httpClient struct {
	baseURL    string       // Базовый URL сервера, например "http://localhost:8080"
	httpClient *http.Client // HTTP клиент для выполнения запросов
	authToken  string       // JWT токен для аутентифицированных запросов
}

// NewHTTPClient создает новый экземпляр API клиента.
func NewHTTPClient(baseURL string) Client {
	return &httpClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (c *httpClient) SetAuthToken(token string) {
	c.authToken = token
}

func (c *httpClient) CheckAppVersion(
	ctx context.Context,
	q UpdateQuery,
	appVersion string,
) (*models.AppUpdateInfo, error) {
	return c.checkUpdate(ctx, "app-version", q, appVersion)
}

func (c *httpClient) CheckFingerprint(
	ctx context.Context,
	q UpdateQuery,
	fingerprintHash string,
) (*models.AppUpdateInfo, error) {
	return c.checkUpdate(ctx, "fingerprint", q, fingerprintHash)
}

// checkUpdate формирует путь /api/{strategy}/{platform}/{value}/{channel}/{minBundleId}/{bundleId}[/{deviceId}].
func (c *httpClient) checkUpdate(
	ctx context.Context,
	strategy string,
	q UpdateQuery,
	value string,
) (*models.AppUpdateInfo, error) {
	channel := q.Channel
	if channel == "" {
		channel = models.DefaultChannel
	}
	minBundleID := q.MinBundleID
	if minBundleID == "" {
		minBundleID = models.NilBundleID
	}
	bundleID := q.BundleID
	if bundleID == "" {
		bundleID = models.NilBundleID
	}

	segments := []string{
		"api", strategy, string(q.Platform), value, channel, string(minBundleID), string(bundleID),
	}
	if q.DeviceID != "" {
		segments = append(segments, q.DeviceID)
	}
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	// Сервер отвечает null, если обновлять нечего: Decode оставит указатель nil.
	var info *models.AppUpdateInfo
	if err := c.doJSON(ctx, http.MethodGet, "/"+strings.Join(segments, "/"), nil, false, &info); err != nil {
		return nil, fmt.Errorf("ошибка проверки обновления: %w", err)
	}
	return info, nil
}

func (c *httpClient) TrackEvent(ctx context.Context, event models.DeviceEvent) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/track", event, false, nil); err != nil {
		return fmt.Errorf("ошибка отправки события: %w", err)
	}
	return nil
}

// Login отправляет запрос на вход на сервер и сохраняет токен.
func (c *httpClient) Login(ctx context.Context, username, password string) (string, error) {
	var resp models.LoginResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/login",
		models.LoginRequest{Username: username, Password: password}, false, &resp)
	if err != nil {
		if errors.Is(err, ErrAuthorization) {
			return "", errors.New("неверное имя пользователя или пароль")
		}
		return "", fmt.Errorf("ошибка входа: %w", err)
	}
	if resp.Token == "" {
		return "", errors.New("сервер вернул пустой токен")
	}

	c.authToken = resp.Token
	return resp.Token, nil
}

func (c *httpClient) ListBundles(ctx context.Context, opts ListOptions) (*models.BundleList, error) {
	params := url.Values{}
	if opts.Channel != "" {
		params.Set("channel", opts.Channel)
	}
	if opts.Platform != "" {
		params.Set("platform", string(opts.Platform))
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}
	path := "/api/bundles"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var list models.BundleList
	if err := c.doJSON(ctx, http.MethodGet, path, nil, true, &list); err != nil {
		return nil, fmt.Errorf("ошибка получения списка бандлов: %w", err)
	}
	return &list, nil
}

func (c *httpClient) GetBundle(ctx context.Context, id models.BundleID) (*models.Bundle, error) {
	var b models.Bundle
	if err := c.doJSON(ctx, http.MethodGet, bundlePath(id), nil, true, &b); err != nil {
		return nil, fmt.Errorf("ошибка получения бандла: %w", err)
	}
	return &b, nil
}

// CreateBundles публикует один или несколько бандлов одним запросом.
func (c *httpClient) CreateBundles(ctx context.Context, bundles ...models.Bundle) error {
	if len(bundles) == 0 {
		return errors.New("нет бандлов для публикации")
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/bundles", bundles, true, nil); err != nil {
		return fmt.Errorf("ошибка публикации бандлов: %w", err)
	}
	return nil
}

func (c *httpClient) UpdateBundle(
	ctx context.Context,
	id models.BundleID,
	patch models.BundlePatch,
) (*models.Bundle, error) {
	var b models.Bundle
	if err := c.doJSON(ctx, http.MethodPatch, bundlePath(id), patch, true, &b); err != nil {
		return nil, fmt.Errorf("ошибка обновления бандла: %w", err)
	}
	return &b, nil
}

func (c *httpClient) DeleteBundle(ctx context.Context, id models.BundleID) error {
	if err := c.doJSON(ctx, http.MethodDelete, bundlePath(id), nil, true, nil); err != nil {
		return fmt.Errorf("ошибка удаления бандла: %w", err)
	}
	return nil
}

// UploadArchive загружает архив бандла. Сервер сам считает хэш и обновляет ссылку.
func (c *httpClient) UploadArchive(
	ctx context.Context,
	id models.BundleID,
	data io.Reader,
	size int64,
) (*models.Bundle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+bundlePath(id)+"/archive", data)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса на загрузку архива: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/zip")

	var b models.Bundle
	if err = c.send(req, true, &b); err != nil {
		return nil, fmt.Errorf("ошибка загрузки архива: %w", err)
	}
	return &b, nil
}

func (c *httpClient) Channels(ctx context.Context) ([]string, error) {
	var resp struct {
		Channels []string `json:"channels"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/bundles/channels", nil, true, &resp); err != nil {
		return nil, fmt.Errorf("ошибка получения списка каналов: %w", err)
	}
	return resp.Channels, nil
}

func (c *httpClient) RolloutStats(ctx context.Context, id models.BundleID) (*models.RolloutStats, error) {
	var stats models.RolloutStats
	if err := c.doJSON(ctx, http.MethodGet, bundlePath(id)+"/rollout-stats", nil, true, &stats); err != nil {
		return nil, fmt.Errorf("ошибка получения статистики раскатки: %w", err)
	}
	return &stats, nil
}

func bundlePath(id models.BundleID) string {
	return "/api/bundles/" + url.PathEscape(string(id))
}

// doJSON кодирует body (если он не nil) и декодирует ответ в out (если он не nil).
func (c *httpClient) doJSON(ctx context.Context, method, path string, body any, auth bool, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ошибка кодирования запроса: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, auth, out)
}

// send выполняет запрос и переводит статусы ответа в ошибки клиента.
func (c *httpClient) send(req *http.Request, auth bool, out any) error {
	if auth {
		if c.authToken == "" {
			return fmt.Errorf("%w: токен аутентификации отсутствует", ErrAuthorization)
		}
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		text := strings.TrimSpace(string(msg))
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return ErrAuthorization
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusConflict:
			return ErrConflict
		default:
			return fmt.Errorf("статус %d: %s", resp.StatusCode, text)
		}
	}

	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ошибка декодирования ответа: %w", err)
	}
	return nil
}
