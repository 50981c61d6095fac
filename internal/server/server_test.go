package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ai-shopping-assistant-be/internal/config"
	"ai-shopping-assistant-be/internal/controller"
	"ai-shopping-assistant-be/internal/dto"
	"ai-shopping-assistant-be/internal/pkg/logger"
	"ai-shopping-assistant-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	sessionID string
	req       dto.AskRequest
}

type fakeAssistant struct {
	calls  []call
	answer string
	panics bool
}

func (f *fakeAssistant) Ask(_ context.Context, sessionID string, req *dto.AskRequest) *dto.AskResponse {
	f.calls = append(f.calls, call{sessionID: sessionID, req: *req})
	if f.panics {
		panic("boom")
	}
	return dto.NewAskResponse(f.answer)
}

const testSecret = "test-secret-value"

func newTestApp(t *testing.T, svc *fakeAssistant) *fiber.App {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>assistant</h1>"), 0o644))

	cfg := &config.Config{
		App:     config.AppConfig{CorsAllowedOrigins: "http://localhost:5173", FrontendDir: dir},
		Session: config.SessionConfig{Secret: testSecret, Store: "memory"},
	}
	return NewApp(cfg, controller.NewAssistantController(svc, dir), logger.NewNopLogger())
}

func multipartRequest(t *testing.T, fields map[string]string, fileName string, file []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("image", fileName)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload_and_query", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == serverutils.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestUploadAndQuery_Envelope(t *testing.T) {
	svc := &fakeAssistant{answer: "It is red."}
	app := newTestApp(t, svc)

	resp, err := app.Test(multipartRequest(t, map[string]string{"query": "what color is this"}, "mug.png", []byte("png-bytes")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode(t, resp)
	assert.Equal(t, true, out["ok"])
	for _, key := range []string{"answer", "message", "response", "text"} {
		assert.Equal(t, "It is red.", out[key], key)
	}

	require.Len(t, svc.calls, 1)
	assert.Equal(t, "what color is this", svc.calls[0].req.Query)
	assert.Equal(t, []byte("png-bytes"), svc.calls[0].req.Image)
	assert.Equal(t, "mug.png", svc.calls[0].req.ImageName)
	assert.NotEmpty(t, svc.calls[0].sessionID)
}

func TestUploadAndQuery_WithoutImage(t *testing.T) {
	svc := &fakeAssistant{answer: "ok"}
	app := newTestApp(t, svc)

	resp, err := app.Test(multipartRequest(t, map[string]string{"query": "is it worth it"}, "", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, svc.calls, 1)
	assert.Nil(t, svc.calls[0].req.Image)
	assert.False(t, svc.calls[0].req.HasUpload())
}

func TestUploadAndQuery_URLEncodedQueryOutlivesRequest(t *testing.T) {
	svc := &fakeAssistant{answer: "ok"}
	app := newTestApp(t, svc)

	for _, q := range []string{"query=what+brand+is+it", "query=xxxxxxxxxxxxxxxxxxxx"} {
		req := httptest.NewRequest(http.MethodPost, "/upload_and_query", strings.NewReader(q))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		_, err := app.Test(req)
		require.NoError(t, err)
	}

	require.Len(t, svc.calls, 2)
	assert.Equal(t, "what brand is it", svc.calls[0].req.Query)
	assert.Equal(t, "xxxxxxxxxxxxxxxxxxxx", svc.calls[1].req.Query)
}

func TestUploadAndQuery_SessionCookieRoundTrip(t *testing.T) {
	svc := &fakeAssistant{answer: "ok"}
	app := newTestApp(t, svc)

	first, err := app.Test(multipartRequest(t, map[string]string{"query": "a"}, "", nil))
	require.NoError(t, err)
	cookie := sessionCookie(first)
	require.NotNil(t, cookie, "a new session cookie is issued")
	assert.True(t, cookie.HttpOnly)

	req := multipartRequest(t, map[string]string{"query": "b"}, "", nil)
	req.AddCookie(cookie)
	second, err := app.Test(req)
	require.NoError(t, err)
	assert.Nil(t, sessionCookie(second), "a valid cookie is not reissued")

	require.Len(t, svc.calls, 2)
	assert.Equal(t, svc.calls[0].sessionID, svc.calls[1].sessionID)

	// a tampered cookie starts a new session
	req = multipartRequest(t, map[string]string{"query": "c"}, "", nil)
	req.AddCookie(&http.Cookie{Name: serverutils.SessionCookieName, Value: cookie.Value + "x"})
	_, err = app.Test(req)
	require.NoError(t, err)
	assert.NotEqual(t, svc.calls[0].sessionID, svc.calls[2].sessionID)
}

func TestUploadAndQuery_PanicStillAnswers(t *testing.T) {
	svc := &fakeAssistant{panics: true}
	app := newTestApp(t, svc)

	resp, err := app.Test(multipartRequest(t, map[string]string{"query": "a"}, "", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode(t, resp)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, dto.ErrorAnswer, out["answer"])
}

func TestIndexAndHealth(t *testing.T) {
	app := newTestApp(t, &fakeAssistant{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "assistant")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSignAndParseSession(t *testing.T) {
	token, err := serverutils.SignSession([]byte(testSecret), "4a7e1f1c-8f0c-4a5e-9a53-3f1f4b7a2c10")
	require.NoError(t, err)

	id, err := serverutils.ParseSession([]byte(testSecret), token)
	require.NoError(t, err)
	assert.Equal(t, "4a7e1f1c-8f0c-4a5e-9a53-3f1f4b7a2c10", id)

	_, err = serverutils.ParseSession([]byte("another-secret"), token)
	assert.Error(t, err)

	bad, _ := serverutils.SignSession([]byte(testSecret), "not-a-uuid")
	_, err = serverutils.ParseSession([]byte(testSecret), bad)
	assert.Error(t, err)
}
