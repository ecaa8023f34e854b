package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	apierrors "github.com/Kris-gadara/Taskly/internal/errors"
	"github.com/Kris-gadara/Taskly/internal/models"
	"github.com/Kris-gadara/Taskly/internal/service"
)

// stubValidator — подменная реализация TokenValidator.
type stubValidator struct {
	claims *models.TokenClaims
	err    error
}

func (s *stubValidator) ValidateAccessToken(string) (*models.TokenClaims, error) {
	return s.claims, s.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestChain_Order(t *testing.T) {
	t.Parallel()

	var got []string
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = append(got, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler(), mk("a"), mk("b"), mk("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"a", "b", "c"}, got)
}

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	t.Parallel()

	var ctxID string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Len(t, ctxID, 32)
	require.Equal(t, ctxID, rec.Header().Get("X-Request-Id"))
}

func TestRequestID_PreservesIncoming(t *testing.T) {
	t.Parallel()

	var ctxID string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "incoming-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "incoming-42", ctxID)
	require.Equal(t, "incoming-42", rec.Header().Get("X-Request-Id"))
}

func TestRequestIDFrom_EmptyWithoutMiddleware(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, RequestIDFrom(req.Context()))
}

func TestAuthn_MissingOrMalformedHeader(t *testing.T) {
	t.Parallel()

	h := Authn(&stubValidator{})(okHandler())

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "no bearer prefix", header: "Token abc"},
		{name: "empty token", header: "Bearer "},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)

			var resp apierrors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Equal(t, "invalid_token", resp.Error.Code)
		})
	}
}

func TestAuthn_InvalidToken_ShortCircuits(t *testing.T) {
	t.Parallel()

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	h := Authn(&stubValidator{err: service.ErrInvalidToken})(next)

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, called, "бизнес-логика не должна вызываться при невалидном токене")
}

func TestAuthn_ValidToken_PutsClaimsIntoContext(t *testing.T) {
	t.Parallel()

	uid := uuid.New()
	claims := &models.TokenClaims{UserID: uid, Name: "Alice", Email: "user@example.com", Role: models.RoleUser}

	var got *models.TokenClaims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := ClaimsFrom(r.Context())
		require.True(t, ok)
		got = c
		w.WriteHeader(http.StatusOK)
	})

	h := Authn(&stubValidator{claims: claims})(next)

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, uid, got.UserID)
}

func TestClaimsFrom_EmptyContext(t *testing.T) {
	t.Parallel()

	_, ok := ClaimsFrom(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	require.False(t, ok)
}

func TestRecover_PanicBecomes500(t *testing.T) {
	t.Parallel()

	h := Recover()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom: secret detail")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	// Детали паники не утекают на клиент.
	require.NotContains(t, rec.Body.String(), "secret detail")

	var resp apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "internal", resp.Error.Code)
}

func TestLogging_WritesFinalRecord(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))

	h := Logging(l)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("X-Request-Id", "rid-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	require.Contains(t, out, "msg=http")
	require.Contains(t, out, "method=GET")
	require.Contains(t, out, "path=/tasks")
	require.Contains(t, out, "status=200")
	require.Contains(t, out, "request_id=rid-1")
}

func TestTimeout_SetsDeadline(t *testing.T) {
	t.Parallel()

	var hadDeadline bool
	h := Timeout(50 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadDeadline = r.Context().Deadline()
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, hadDeadline)
}

func TestTimeout_ZeroIsNoop(t *testing.T) {
	t.Parallel()

	var hadDeadline bool
	h := Timeout(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadDeadline = r.Context().Deadline()
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.False(t, hadDeadline)
}

func TestStatusWriter_DefaultsTo200OnWrite(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	sw := newStatusWriter(rec)

	n, err := io.WriteString(sw, "payload")
	require.NoError(t, err)
	require.Equal(t, 7, n)
	require.Equal(t, http.StatusOK, sw.status)
	require.Equal(t, 7, sw.count)
}
