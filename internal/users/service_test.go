package users

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokosehat/kasir/pkg/apiclient"
	"github.com/tokosehat/kasir/pkg/enums"
	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newService(t *testing.T, rt roundTripFunc) Service {
	t.Helper()
	api, err := apiclient.New("http://kasir.test/api", apiclient.WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)
	svc, err := NewService(api)
	require.NoError(t, err)
	return svc
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestListDecodesUsers(t *testing.T) {
	t.Parallel()

	svc := newService(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodGet, req.Method)
		assert.Equal(t, "/api/users", req.URL.Path)
		return respond(http.StatusOK, `{"status":"success","message":"ok","data":[
			{"id":1,"nama":"Admin","username":"admin","hak_akses":"admin","created_at":"2026-01-01"},
			{"id":2,"nama":"Sari","username":"sari","hak_akses":"kasir"}]}`), nil
	})

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, enums.RoleAdmin, list[0].HakAkses)
	assert.Equal(t, "2026-01-01", list[0].CreatedAt)
	assert.Equal(t, "sari", list[1].Username)
}

func TestRegisterValidatesLocally(t *testing.T) {
	t.Parallel()

	svc := newService(t, func(req *http.Request) (*http.Response, error) {
		t.Fatalf("invalid request must not reach the backend")
		return nil, nil
	})
	_, err := svc.Register(context.Background(), RegisterRequest{Nama: " ", Username: "x", Password: "123", HakAkses: "owner"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	fields, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, fields, "nama")
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "hak_akses")
}

func TestRegisterSurfacesServerMessage(t *testing.T) {
	t.Parallel()

	svc := newService(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/api/register", req.URL.Path)
		return respond(http.StatusUnprocessableEntity, `{"message":"Username sudah digunakan","errors":{"username":["Username sudah digunakan"]}}`), nil
	})
	_, err := svc.Register(context.Background(), RegisterRequest{Nama: "Budi", Username: "budi", Password: "rahasia", HakAkses: enums.RoleKasir})
	require.Error(t, err)
	assert.Equal(t, "Username sudah digunakan", pkgerrors.MessageOr(err, ""))
}

func TestChangePasswordRequiresMatchingConfirmation(t *testing.T) {
	t.Parallel()

	calls := 0
	svc := newService(t, func(req *http.Request) (*http.Response, error) {
		calls++
		assert.Equal(t, http.MethodPatch, req.Method)
		assert.Equal(t, "/api/users/4/change-password", req.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "baru123", body["new_password_confirmation"])
		return respond(http.StatusOK, `{"status":true,"message":"Password berhasil diubah"}`), nil
	})

	err := svc.ChangePassword(context.Background(), 4, ChangePasswordRequest{
		CurrentPassword: "lama123", NewPassword: "baru123", NewPasswordConfirmation: "baru124",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Zero(t, calls)

	err = svc.ChangePassword(context.Background(), 4, ChangePasswordRequest{
		CurrentPassword: "lama123", NewPassword: "baru123", NewPasswordConfirmation: "baru123",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestSearchPostsTermAndLimit(t *testing.T) {
	t.Parallel()

	svc := newService(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/api/users/search", req.URL.Path)
		var body searchRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, searchRequest{Search: "sar", Limit: 10}, body)
		return respond(http.StatusOK, `{"status":true,"data":[{"id":2,"nama":"Sari","username":"sari","hak_akses":"kasir"}]}`), nil
	})

	found, err := svc.Search(context.Background(), " sar ", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)

	empty, err := svc.Search(context.Background(), "  ", 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetRejectsInvalidID(t *testing.T) {
	t.Parallel()

	svc := newService(t, func(req *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected call")
		return nil, nil
	})
	_, err := svc.Get(context.Background(), 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.True(t, pkgerrors.IsCode(svc.Delete(context.Background(), -1), pkgerrors.CodeValidation))
}
