package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tajweer/marketplace/internal/config"
	"github.com/tajweer/marketplace/internal/handlers"
	"github.com/tajweer/marketplace/internal/models"
	"github.com/tajweer/marketplace/internal/storage"
	"github.com/tajweer/marketplace/internal/token"
	httpserver "github.com/tajweer/marketplace/internal/transport/http"
)

type testEnv struct {
	T         *testing.T
	E         *echo.Echo
	DB        *gorm.DB
	Store     *storage.Store
	Tokens    *token.Service
	UploadDir string
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// In-memory sqlite is per-connection; a second pooled connection would
	// see an empty database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := openTestDB(t)
	uploadDir := t.TempDir()
	store, err := storage.New(uploadDir)
	require.NoError(t, err)

	tokens := &token.Service{DB: db, Secret: []byte("test-secret")}

	e := echo.New()
	e.Pre(echomw.RemoveTrailingSlash())

	deps := httpserver.Deps{
		DB:             db,
		Tokens:         tokens,
		AuthHandler:    &handlers.AuthHandler{DB: db, Tokens: tokens},
		ProductHandler: &handlers.ProductHandler{DB: db, Store: store},
		CommentHandler: &handlers.CommentHandler{DB: db},
		UploadDir:      store.Root(),
	}
	httpserver.Register(e, &deps)

	return &testEnv{T: t, E: e, DB: db, Store: store, Tokens: tokens, UploadDir: uploadDir}
}

func (env *testEnv) do(method, path string, body io.Reader, contentType, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) doJSON(method, path string, body any, bearer string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	return env.do(method, path, &buf, echo.MIMEApplicationJSON, bearer)
}

func (env *testEnv) doForm(method, path string, values url.Values) *httptest.ResponseRecorder {
	return env.do(method, path, strings.NewReader(values.Encode()), echo.MIMEApplicationForm, "")
}

// multipartBody builds a product form body; files become "images" parts
// keyed by filename.
func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, data := range files {
		part, err := w.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (env *testEnv) register(name, phone, password string) models.User {
	env.T.Helper()
	rec := env.doJSON(http.MethodPost, "/users/", map[string]string{
		"name":     name,
		"phone":    phone,
		"password": password,
	}, "")
	require.Equal(env.T, http.StatusOK, rec.Code, rec.Body.String())

	var user models.User
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &user))
	return user
}

func (env *testEnv) loginToken(phone, password string) string {
	env.T.Helper()
	rec := env.doForm(http.MethodPost, "/token", url.Values{
		"username": {phone},
		"password": {password},
	})
	require.Equal(env.T, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(env.T, resp.AccessToken)
	require.Equal(env.T, "bearer", resp.TokenType)
	return resp.AccessToken
}

func (env *testEnv) createProduct(bearer string, fields map[string]string, files map[string][]byte) models.Product {
	env.T.Helper()
	body, contentType := multipartBody(env.T, fields, files)
	rec := env.do(http.MethodPost, "/products/", body, contentType, bearer)
	require.Equal(env.T, http.StatusOK, rec.Code, rec.Body.String())

	var product models.Product
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &product))
	return product
}
