package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTestTokens(t *testing.T) *Tokens {
	t.Helper()
	tokens, err := NewTokens(testKey, nil, time.Hour)
	require.NoError(t, err)
	return tokens
}

func TestIssueAndAuthenticate(t *testing.T) {
	tokens := newTestTokens(t)

	token, err := tokens.Issue("user-1")
	require.NoError(t, err)

	userID, err := tokens.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestAuthenticateRejectsForeignAndTamperedTokens(t *testing.T) {
	tokens := newTestTokens(t)
	token, err := tokens.Issue("user-1")
	require.NoError(t, err)

	other, err := NewTokens([]byte("ffffffffffffffffffffffffffffffff"), nil, time.Hour)
	require.NoError(t, err)
	_, err = other.Authenticate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Authenticate(token[:len(token)-2] + "xx")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Authenticate("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestEncryptedTokens(t *testing.T) {
	tokens, err := NewTokens(testKey, []byte("abcdefghijklmnop"), time.Hour)
	require.NoError(t, err)

	token, err := tokens.Issue("user-2")
	require.NoError(t, err)
	userID, err := tokens.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-2", userID)
}

func TestNewTokensRejectsShortKey(t *testing.T) {
	_, err := NewTokens([]byte("short"), nil, time.Hour)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestIssueRejectsEmptyUser(t *testing.T) {
	_, err := newTestTokens(t).Issue("  ")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	tests := map[string]struct {
		header string
		token  string
		err    error
	}{
		"valid":        {header: "Bearer abc", token: "abc"},
		"lower scheme": {header: "bearer abc", token: "abc"},
		"missing":      {header: "", err: ErrMissingToken},
		"empty token":  {header: "Bearer   ", err: ErrMissingToken},
		"basic scheme": {header: "Basic abc", err: ErrInvalidToken},
		"no scheme":    {header: "abc", err: ErrInvalidToken},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			token, err := BearerToken(req)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.token, token)
		})
	}
}

func TestMiddleware(t *testing.T) {
	tokens := newTestTokens(t)
	token, err := tokens.Issue("user-9")
	require.NoError(t, err)

	var rejected error
	handler := tokens.Middleware(func(w http.ResponseWriter, r *http.Request, err error) {
		rejected = err
		w.WriteHeader(http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(UserID(r.Context())))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-9", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.ErrorIs(t, rejected, ErrMissingToken)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.ErrorIs(t, rejected, ErrInvalidToken)
}
