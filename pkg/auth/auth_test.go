package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thefitz/companion/pkg/models"
	"github.com/thefitz/companion/pkg/services"
	"golang.org/x/crypto/bcrypt"
)

type fakeStaff struct {
	byEmail map[string]*models.Staff
	err     error
}

func (f *fakeStaff) GetByEmail(_ context.Context, email string) (*models.Staff, error) {
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.byEmail[email]; ok {
		return s, nil
	}
	return nil, services.ErrNotFound
}

func (f *fakeStaff) Get(_ context.Context, id string) (*models.Staff, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, s := range f.byEmail {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, services.ErrNotFound
}

func newFakeStaff(t *testing.T) *fakeStaff {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("fitz2024"), bcrypt.MinCost)
	require.NoError(t, err)
	return &fakeStaff{byEmail: map[string]*models.Staff{
		"aoife@thefitz.hotel": {ID: "s1", Name: "Aoife", Email: "aoife@thefitz.hotel", Role: "manager", PasswordHash: string(hash)},
	}}
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("secret", 8*time.Hour)
	staff := &models.Staff{ID: "s1", Email: "aoife@thefitz.hotel", Role: "manager"}

	t.Run("round trip", func(t *testing.T) {
		token, err := issuer.Issue(staff)
		require.NoError(t, err)
		claims, err := issuer.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, "s1", claims.ID)
		assert.Equal(t, "manager", claims.Role)
		assert.Equal(t, "s1", claims.Subject)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewTokenIssuer("other", time.Hour).Issue(staff)
		require.NoError(t, err)
		_, err = issuer.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		old := NewTokenIssuer("secret", time.Hour)
		old.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := old.Issue(staff)
		require.NoError(t, err)
		_, err = issuer.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects other algorithms", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{ID: "s1"}).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = issuer.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestService_Login(t *testing.T) {
	svc := NewService(newFakeStaff(t), NewTokenIssuer("secret", time.Hour))
	ctx := context.Background()

	tests := []struct {
		name    string
		req     models.LoginRequest
		wantErr func(t *testing.T, err error)
	}{
		{
			name: "missing password",
			req:  models.LoginRequest{Email: "aoife@thefitz.hotel"},
			wantErr: func(t *testing.T, err error) {
				assert.True(t, services.IsValidationError(err))
				assert.Contains(t, err.Error(), "Email and password required")
			},
		},
		{
			name:    "unknown email",
			req:     models.LoginRequest{Email: "nobody@thefitz.hotel", Password: "x"},
			wantErr: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrInvalidCredentials) },
		},
		{
			name:    "wrong password",
			req:     models.LoginRequest{Email: "aoife@thefitz.hotel", Password: "nope"},
			wantErr: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrInvalidCredentials) },
		},
		{
			name: "mixed case email",
			req:  models.LoginRequest{Email: "  Aoife@TheFitz.Hotel ", Password: "fitz2024"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Login(ctx, tt.req)
			if tt.wantErr != nil {
				require.Error(t, err)
				tt.wantErr(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, resp.Token)
			assert.Equal(t, models.StaffProfile{ID: "s1", Name: "Aoife", Email: "aoife@thefitz.hotel", Role: "manager"}, resp.User)
		})
	}

	t.Run("store failure is not a credential error", func(t *testing.T) {
		failing := NewService(&fakeStaff{err: errors.New("db down")}, NewTokenIssuer("secret", time.Hour))
		_, err := failing.Login(ctx, models.LoginRequest{Email: "a@b.c", Password: "x"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestService_Me(t *testing.T) {
	svc := NewService(newFakeStaff(t), NewTokenIssuer("secret", time.Hour))

	profile, err := svc.Me(context.Background(), &Claims{ID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "Aoife", profile.Name)

	_, err = svc.Me(context.Background(), &Claims{ID: "gone"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("fitz2024")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(hash, "fitz2024"))
	assert.Error(t, CheckPassword(hash, "fitz2025"))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"Bearer   ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := NewTokenIssuer("secret", time.Hour)

	router := gin.New()
	router.GET("/me", Middleware(issuer), func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": claims.ID})
	})

	valid, err := issuer.Issue(&models.Staff{ID: "s1", Role: "staff"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
		wantBody   string
	}{
		{name: "no header", wantStatus: http.StatusUnauthorized, wantBody: "No token provided"},
		{name: "bad token", header: "Bearer forged", wantStatus: http.StatusUnauthorized, wantBody: "Invalid token"},
		{name: "valid", header: "Bearer " + valid, wantStatus: http.StatusOK, wantBody: "s1"},
		{name: "query token", query: "?access_token=" + valid, wantStatus: http.StatusOK, wantBody: "s1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, body["id"])
			} else {
				assert.Equal(t, tt.wantBody, body["error"])
			}
		})
	}
}
