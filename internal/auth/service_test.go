package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokosehat/kasir/pkg/apiclient"
	"github.com/tokosehat/kasir/pkg/auth/session"
	"github.com/tokosehat/kasir/pkg/enums"
	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newService(t *testing.T, rt roundTripFunc) (Service, *session.Session) {
	t.Helper()
	sess, err := session.New(session.NewMemoryStore("kasir"), "register-1", time.Hour)
	require.NoError(t, err)
	api, err := apiclient.New("http://kasir.test/api",
		apiclient.WithHTTPClient(&http.Client{Transport: rt}),
		apiclient.WithCredentials(sess),
	)
	require.NoError(t, err)
	svc, err := NewService(api, sess, nil)
	require.NoError(t, err)
	return svc, sess
}

func TestLoginStoresTokenAndUser(t *testing.T) {
	t.Parallel()

	svc, sess := newService(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/api/login", req.URL.Path)
		assert.Empty(t, req.Header.Get("Authorization"))
		return respond(http.StatusOK, `{"status":"success","message":"Login berhasil","token":"opaque-token",
			"data":{"id":7,"nama":"Sari","username":"sari","hak_akses":"kasir"}}`), nil
	})

	result, err := svc.Login(context.Background(), LoginRequest{Username: " sari ", Password: "rahasia"})
	require.NoError(t, err)
	assert.Equal(t, "Login berhasil", result.Message)
	assert.Equal(t, enums.RoleKasir, result.User.HakAkses)

	assert.True(t, sess.IsAuthenticated())
	assert.Equal(t, "opaque-token", sess.Token())
	user, ok := svc.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, int64(7), user.ID)

	require.NoError(t, svc.Logout(context.Background()))
	_, ok = svc.CurrentUser()
	assert.False(t, ok)
	assert.Empty(t, sess.Token())
}

func TestLoginRejectedUsesServerMessage(t *testing.T) {
	t.Parallel()

	svc, sess := newService(t, func(req *http.Request) (*http.Response, error) {
		return respond(http.StatusUnauthorized, `{"status":false,"message":"Username atau password salah"}`), nil
	})
	_, err := svc.Login(context.Background(), LoginRequest{Username: "sari", Password: "x"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	assert.Equal(t, "Username atau password salah", pkgerrors.MessageOr(err, ""))
	assert.False(t, sess.IsAuthenticated())
}

func TestLoginRejectedWithoutMessageFallsBack(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, func(req *http.Request) (*http.Response, error) {
		return respond(http.StatusUnprocessableEntity, `{}`), nil
	})
	_, err := svc.Login(context.Background(), LoginRequest{Username: "sari", Password: "x"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, "Login gagal", pkgerrors.MessageOr(err, ""))
}

func TestLoginWithoutTokenFails(t *testing.T) {
	t.Parallel()

	svc, sess := newService(t, func(req *http.Request) (*http.Response, error) {
		return respond(http.StatusOK, `{"status":"success","data":{"id":7,"nama":"Sari","hak_akses":"kasir"}}`), nil
	})
	_, err := svc.Login(context.Background(), LoginRequest{Username: "sari", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, "Login gagal", pkgerrors.MessageOr(err, ""))
	assert.False(t, sess.IsAuthenticated())
}

func TestLoginUnreachable(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	_, err := svc.Login(context.Background(), LoginRequest{Username: "sari", Password: "x"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Equal(t, "Tidak dapat terhubung ke server", pkgerrors.MessageOr(err, ""))
}

func TestLoginValidatesLocally(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, func(req *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected call")
		return nil, nil
	})
	_, err := svc.Login(context.Background(), LoginRequest{Username: " "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
