package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/washp/pkg/adapter"
	"github.com/m-mizutani/washp/pkg/care"
	"github.com/m-mizutani/washp/pkg/model"
	"github.com/m-mizutani/washp/pkg/repository"
	"github.com/m-mizutani/washp/pkg/service/api"
	"github.com/m-mizutani/washp/pkg/usecase/account"
	"github.com/m-mizutani/washp/pkg/usecase/analysis"
	"github.com/m-mizutani/washp/pkg/usecase/history"
	"golang.org/x/crypto/bcrypt"
)

type mockInference struct {
	text string
}

func (m *mockInference) Generate(ctx context.Context, req *adapter.InferenceRequest) (string, error) {
	return m.text, nil
}

type fixture struct {
	server *httptest.Server
	repo   *repository.Memory
	inf    *mockInference
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := repository.NewMemory()
	identity, err := adapter.NewLocalIdentity(repo, []byte("api-secret"), adapter.WithBcryptCost(bcrypt.MinCost))
	gt.NoError(t, err)

	inf := &mockInference{}
	srv := api.New(
		analysis.New(inf, repo),
		history.New(repo),
		account.New(identity, repo),
		api.WithShareBaseURL("https://washp.example.com"),
		api.WithAllowedOrigins("https://app.example.com"),
	)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &fixture{server: ts, repo: repo, inf: inf}
}

func (f *fixture) do(t *testing.T, method, path, token string, body io.Reader, contentType string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, body)
	gt.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	gt.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	gt.NoError(t, err)
	return resp, data
}

func (f *fixture) doJSON(t *testing.T, method, path, token string, v any) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if v != nil {
		data, err := json.Marshal(v)
		gt.NoError(t, err)
		body = bytes.NewReader(data)
	}
	return f.do(t, method, path, token, body, "application/json")
}

func (f *fixture) signUp(t *testing.T, email string) *model.Session {
	t.Helper()
	resp, data := f.doJSON(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": email, "password": "s3cret!", "name": "Marie",
	})
	gt.Equal(t, resp.StatusCode, http.StatusCreated)

	var session model.Session
	gt.NoError(t, json.Unmarshal(data, &session))
	return &session
}

func photo(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 48, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 48; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 5), G: 80, B: uint8(y * 7), A: 255})
		}
	}
	var buf bytes.Buffer
	gt.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartBody(t *testing.T, images int, save bool) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i := 0; i < images; i++ {
		part, err := mw.CreateFormFile("image", "capture.png")
		gt.NoError(t, err)
		_, err = part.Write(photo(t))
		gt.NoError(t, err)
	}
	if save {
		gt.NoError(t, mw.WriteField("save", "true"))
	}
	gt.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func resultJSON(t *testing.T, title string) string {
	t.Helper()
	result := care.Default(model.LocaleEN)
	result.Title = title
	data, err := json.Marshal(result)
	gt.NoError(t, err)
	return string(data)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp, data := f.do(t, http.MethodGet, "/health", "", nil, "")
	gt.Equal(t, resp.StatusCode, http.StatusOK)
	gt.Equal(t, string(data), "ok")
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)

	resp, data := f.do(t, http.MethodGet, "/api/v1/history", "", nil, "")
	gt.Equal(t, resp.StatusCode, http.StatusUnauthorized)
	gt.S(t, string(data)).Contains("Veuillez vous connecter")

	resp, data = f.do(t, http.MethodGet, "/api/v1/history?lang=en", "forged.token", nil, "")
	gt.Equal(t, resp.StatusCode, http.StatusUnauthorized)
	gt.S(t, string(data)).Contains("session has expired")
}

func TestSignUpSignInAndProfile(t *testing.T) {
	f := newFixture(t)
	session := f.signUp(t, "marie@example.com")
	gt.NotEqual(t, session.IDToken, "")

	resp, data := f.doJSON(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": "marie@example.com", "password": "s3cret!", "name": "Marie",
	})
	gt.Equal(t, resp.StatusCode, http.StatusConflict)
	gt.S(t, string(data)).Contains("déjà utilisée")

	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/api/v1/auth/signin", strings.NewReader(`{"email":"marie@example.com","password":"wrong!!"}`))
	gt.NoError(t, err)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	wrong, err := http.DefaultClient.Do(req)
	gt.NoError(t, err)
	var errBody map[string]string
	gt.NoError(t, json.NewDecoder(wrong.Body).Decode(&errBody))
	_ = wrong.Body.Close()
	gt.Equal(t, wrong.StatusCode, http.StatusUnauthorized)
	gt.Equal(t, errBody["error"], "Incorrect password")

	resp, data = f.doJSON(t, http.MethodPost, "/api/v1/auth/signin", "", map[string]string{
		"email": "marie@example.com", "password": "s3cret!",
	})
	gt.Equal(t, resp.StatusCode, http.StatusOK)
	var signedIn model.Session
	gt.NoError(t, json.Unmarshal(data, &signedIn))
	gt.Equal(t, signedIn.UserID, session.UserID)

	resp, data = f.do(t, http.MethodGet, "/api/v1/me", signedIn.IDToken, nil, "")
	gt.Equal(t, resp.StatusCode, http.StatusOK)
	var user model.User
	gt.NoError(t, json.Unmarshal(data, &user))
	gt.Equal(t, user.Name, "Marie")
	gt.Equal(t, user.Email, "marie@example.com")
}

func TestSignUpRejectsMalformedBody(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.do(t, http.MethodPost, "/api/v1/auth/signup", "", strings.NewReader("{"), "application/json")
	gt.Equal(t, resp.StatusCode, http.StatusBadRequest)

	resp, _ = f.doJSON(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": "marie@example.com", "password": "123", "name": "Marie",
	})
	gt.Equal(t, resp.StatusCode, http.StatusBadRequest)
}

func TestAnalyzeAndHistory(t *testing.T) {
	f := newFixture(t)
	session := f.signUp(t, "marie@example.com")

	f.inf.text = "Here you go: " + resultJSON(t, "Blue Shirt")
	body, ct := multipartBody(t, 2, true)
	resp, data := f.do(t, http.MethodPost, "/api/v1/analyses?lang=en", session.IDToken, body, ct)
	gt.Equal(t, resp.StatusCode, http.StatusOK)

	var analyzed struct {
		Result  model.AnalysisResult `json:"result"`
		Outcome string               `json:"outcome"`
		Item    struct {
			ID          model.HistoryID `json:"id"`
			Name        string          `json:"name"`
			Image       string          `json:"image"`
			DisplayDate string          `json:"displayDate"`
		} `json:"item"`
	}
	gt.NoError(t, json.Unmarshal(data, &analyzed))
	gt.Equal(t, analyzed.Outcome, "valid")
	gt.Equal(t, analyzed.Result.Title, "Blue Shirt")
	gt.Equal(t, analyzed.Item.Name, "Blue Shirt")
	gt.S(t, analyzed.Item.Image).Contains("data:image/jpeg;base64,")
	gt.NotEqual(t, analyzed.Item.DisplayDate, "")

	f.inf.text = "no idea"
	body, ct = multipartBody(t, 1, false)
	resp, data = f.do(t, http.MethodPost, "/api/v1/analyses?lang=fr", session.IDToken, body, ct)
	gt.Equal(t, resp.StatusCode, http.StatusOK)
	gt.S(t, string(data)).Contains(`"outcome":"fallback"`)
	gt.S(t, string(data)).Contains("Vêtement analysé")
	gt.S(t, string(data)).NotContains(`"item"`)

	resp, data = f.do(t, http.MethodGet, "/api/v1/history", session.IDToken, nil, "")
	gt.Equal(t, resp.StatusCode, http.StatusOK)
	var list struct {
		Items []struct {
			ID   model.HistoryID `json:"id"`
			Name string          `json:"name"`
		} `json:"items"`
	}
	gt.NoError(t, json.Unmarshal(data, &list))
	gt.A(t, list.Items).Length(1)
	gt.Equal(t, list.Items[0].ID, analyzed.Item.ID)

	path := "/api/v1/history/" + string(analyzed.Item.ID)
	resp, _ = f.do(t, http.MethodGet, path, session.IDToken, nil, "")
	gt.Equal(t, resp.StatusCode, http.StatusOK)

	resp, data = f.do(t, http.MethodGet, path+"/share", session.IDToken, nil, "")
	gt.Equal(t, resp.StatusCode, http.StatusOK)
	var shared struct {
		URL   string            `json:"url"`
		Links map[string]string `json:"links"`
	}
	gt.NoError(t, json.Unmarshal(data, &shared))
	gt.Equal(t, shared.URL, "https://washp.example.com/history/"+string(analyzed.Item.ID))
	gt.Map(t, shared.Links).HasKey("whatsapp")

	other := f.signUp(t, "paul@example.com")
	resp, _ = f.do(t, http.MethodGet, path, other.IDToken, nil, "")
	gt.Equal(t, resp.StatusCode, http.StatusNotFound)
	resp, _ = f.do(t, http.MethodDelete, path, other.IDToken, nil, "")
	gt.Equal(t, resp.StatusCode, http.StatusNotFound)

	resp, _ = f.do(t, http.MethodDelete, path, session.IDToken, nil, "")
	gt.Equal(t, resp.StatusCode, http.StatusNoContent)
	resp, _ = f.do(t, http.MethodGet, path, session.IDToken, nil, "")
	gt.Equal(t, resp.StatusCode, http.StatusNotFound)
}

func TestAnalyzeWithoutImage(t *testing.T) {
	f := newFixture(t)
	session := f.signUp(t, "marie@example.com")

	body, ct := multipartBody(t, 0, false)
	resp, data := f.do(t, http.MethodPost, "/api/v1/analyses?lang=en", session.IDToken, body, ct)
	gt.Equal(t, resp.StatusCode, http.StatusBadRequest)
	gt.S(t, string(data)).Contains("at least one photo")

	resp, _ = f.doJSON(t, http.MethodPost, "/api/v1/analyses", session.IDToken, map[string]string{})
	gt.Equal(t, resp.StatusCode, http.StatusBadRequest)
}

func TestAnalyzeRejectsUnreadableCapture(t *testing.T) {
	f := newFixture(t)
	session := f.signUp(t, "marie@example.com")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "capture.jpg")
	gt.NoError(t, err)
	_, err = part.Write([]byte("not an image at all"))
	gt.NoError(t, err)
	gt.NoError(t, mw.Close())

	resp, data := f.do(t, http.MethodPost, "/api/v1/analyses?lang=en", session.IDToken, &buf, mw.FormDataContentType())
	gt.Equal(t, resp.StatusCode, http.StatusBadRequest)
	gt.S(t, string(data)).Contains("could not be read")
	gt.S(t, string(data)).NotContains("Something went wrong")
}

func TestHistoryFallbackWarning(t *testing.T) {
	repo := repository.NewMemory(repository.WithOrderedQueryError(repository.ErrIndexRequired))
	identity, err := adapter.NewLocalIdentity(repo, []byte("api-secret"), adapter.WithBcryptCost(bcrypt.MinCost))
	gt.NoError(t, err)
	accountUC := account.New(identity, repo)
	srv := httptest.NewServer(api.New(analysis.New(&mockInference{}, repo), history.New(repo), accountUC).Handler())
	defer srv.Close()

	session, err := accountUC.SignUp(context.Background(), model.Credentials{Email: "marie@example.com", Password: "s3cret!"}, "Marie")
	gt.NoError(t, err)
	for i, name := range []string{"old", "new"} {
		item := model.NewHistoryItem(session.UserID, "", care.Default(model.LocaleFR), time.Date(2025, 1, i+1, 0, 0, 0, 0, time.UTC))
		item.Name = name
		gt.NoError(t, repo.PutHistory(context.Background(), item))
	}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/history?lang=en", nil)
	gt.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+session.IDToken)
	resp, err := http.DefaultClient.Do(req)
	gt.NoError(t, err)
	defer resp.Body.Close()

	var list struct {
		Items []struct {
			Name        string `json:"name"`
			DisplayDate string `json:"displayDate"`
		} `json:"items"`
		Warning string `json:"warning"`
	}
	gt.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	gt.Equal(t, resp.StatusCode, http.StatusOK)
	gt.A(t, list.Items).Length(2)
	gt.Equal(t, list.Items[0].Name, "new")
	gt.Equal(t, list.Items[0].DisplayDate, "January 2, 2025")
	gt.S(t, list.Warning).Contains("sorted locally")
}

func TestClearHistoryAndDeleteAccount(t *testing.T) {
	f := newFixture(t)
	session := f.signUp(t, "marie@example.com")

	f.inf.text = resultJSON(t, "Coat")
	for i := 0; i < 2; i++ {
		body, ct := multipartBody(t, 1, true)
		resp, _ := f.do(t, http.MethodPost, "/api/v1/analyses", session.IDToken, body, ct)
		gt.Equal(t, resp.StatusCode, http.StatusOK)
	}

	resp, data := f.do(t, http.MethodDelete, "/api/v1/history", session.IDToken, nil, "")
	gt.Equal(t, resp.StatusCode, http.StatusOK)
	gt.S(t, string(data)).Contains(`"deleted":2`)

	body, ct := multipartBody(t, 1, true)
	resp, _ = f.do(t, http.MethodPost, "/api/v1/analyses", session.IDToken, body, ct)
	gt.Equal(t, resp.StatusCode, http.StatusOK)

	resp, _ = f.doJSON(t, http.MethodDelete, "/api/v1/account", session.IDToken, map[string]string{"password": "wrong!!"})
	gt.Equal(t, resp.StatusCode, http.StatusUnauthorized)

	resp, _ = f.doJSON(t, http.MethodDelete, "/api/v1/account", session.IDToken, map[string]string{"password": "s3cret!"})
	gt.Equal(t, resp.StatusCode, http.StatusNoContent)

	items, err := f.repo.ListHistory(context.Background(), session.UserID)
	gt.NoError(t, err)
	gt.A(t, items).Length(0)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/me", session.IDToken, nil, "")
	gt.Equal(t, resp.StatusCode, http.StatusUnauthorized)
}

func TestDeleteAccountWithoutProfile(t *testing.T) {
	f := newFixture(t)
	session := f.signUp(t, "marie@example.com")
	gt.NoError(t, f.repo.DeleteUser(context.Background(), session.UserID))

	resp, _ := f.doJSON(t, http.MethodDelete, "/api/v1/account", session.IDToken, map[string]string{"password": "s3cret!"})
	gt.Equal(t, resp.StatusCode, http.StatusNoContent)

	resp, _ = f.doJSON(t, http.MethodPost, "/api/v1/auth/signin", "", map[string]string{
		"email": "marie@example.com", "password": "s3cret!",
	})
	gt.Equal(t, resp.StatusCode, http.StatusUnauthorized)
}

func TestPasswordReset(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "marie@example.com")

	resp, _ := f.doJSON(t, http.MethodPost, "/api/v1/auth/password-reset", "", map[string]string{"email": "marie"})
	gt.Equal(t, resp.StatusCode, http.StatusBadRequest)

	resp, data := f.doJSON(t, http.MethodPost, "/api/v1/auth/password-reset?lang=en", "", map[string]string{"email": "marie@example.com"})
	gt.Equal(t, resp.StatusCode, http.StatusNotImplemented)
	gt.S(t, string(data)).Contains("Email delivery is not available")
}

func TestSignOutRevokesToken(t *testing.T) {
	f := newFixture(t)
	session := f.signUp(t, "marie@example.com")

	resp, _ := f.do(t, http.MethodPost, "/api/v1/auth/verify-email", session.IDToken, nil, "")
	gt.Equal(t, resp.StatusCode, http.StatusAccepted)

	resp, _ = f.do(t, http.MethodPost, "/api/v1/auth/signout", session.IDToken, nil, "")
	gt.Equal(t, resp.StatusCode, http.StatusNoContent)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/me", session.IDToken, nil, "")
	gt.Equal(t, resp.StatusCode, http.StatusUnauthorized)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)
	req, err := http.NewRequest(http.MethodOptions, f.server.URL+"/api/v1/history", nil)
	gt.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	resp, err := http.DefaultClient.Do(req)
	gt.NoError(t, err)
	defer resp.Body.Close()
	gt.Equal(t, resp.Header.Get("Access-Control-Allow-Origin"), "https://app.example.com")
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	repo := repository.NewMemory()
	identity, err := adapter.NewLocalIdentity(repo, []byte("api-secret"))
	gt.NoError(t, err)
	srv := api.New(analysis.New(&mockInference{}, repo), history.New(repo), account.New(identity, repo))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.ListenAndServe(ctx, "127.0.0.1:0", api.DefaultTimeouts())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		gt.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
