package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "duofinance/internal/errors"
	"duofinance/internal/logger"
	"duofinance/internal/models"
	"duofinance/internal/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return result
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := parseBody(t, rec)
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %v", body)
	}
	code, _ := errObj["code"].(string)
	return code
}

func testUser() *models.User {
	return &models.User{Base: models.Base{ID: "0190b4a2-7c3e-7d4a-9f00-000000000001"}, Email: "alex@example.com"}
}

func setupAuthRouter() *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(UserIDKey)})
	})
	return r
}

func doAuthRequest(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	user := testUser()
	access, err := GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}
	refresh, err := GenerateRefreshToken(user)
	if err != nil {
		t.Fatalf("failed to generate refresh token: %v", err)
	}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{
		UserID:    user.ID,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			Issuer:    issuer,
		},
	})
	expiredToken, err := expired.SignedString(getJWTKey())
	if err != nil {
		t.Fatalf("failed to sign expired token: %v", err)
	}

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{
		UserID:           user.ID,
		TokenType:        tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer},
	})
	forgedToken, err := forged.SignedString([]byte("not-the-secret"))
	if err != nil {
		t.Fatalf("failed to sign forged token: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid_access_token", header: "Bearer " + access, wantStatus: http.StatusOK},
		{name: "missing_header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong_scheme", header: "Basic " + access, wantStatus: http.StatusUnauthorized},
		{name: "refresh_token", header: "Bearer " + refresh, wantStatus: http.StatusUnauthorized},
		{name: "expired_token", header: "Bearer " + expiredToken, wantStatus: http.StatusUnauthorized},
		{name: "wrong_key", header: "Bearer " + forgedToken, wantStatus: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer abc.def.ghi", wantStatus: http.StatusUnauthorized},
	}

	r := setupAuthRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doAuthRequest(r, tt.header)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				body := parseBody(t, rec)
				if body["user_id"] != user.ID {
					t.Errorf("expected user_id %s, got %v", user.ID, body["user_id"])
				}
				return
			}
			if code := errorCode(t, rec); code != "UNAUTHORIZED" {
				t.Errorf("expected UNAUTHORIZED, got %s", code)
			}
		})
	}
}

func TestValidateRefreshToken(t *testing.T) {
	user := testUser()

	refresh, err := GenerateRefreshToken(user)
	if err != nil {
		t.Fatalf("failed to generate refresh token: %v", err)
	}
	claims, err := ValidateRefreshToken(refresh)
	if err != nil {
		t.Fatalf("expected refresh token to validate, got %v", err)
	}
	if claims.UserID != user.ID || claims.Subject != user.ID {
		t.Errorf("expected subject %s, got %s / %s", user.ID, claims.UserID, claims.Subject)
	}

	access, err := GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}
	if _, err := ValidateRefreshToken(access); err == nil {
		t.Error("expected access token to be rejected as refresh token")
	}
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/app", func(c *gin.Context) {
		_ = c.Error(apperrors.Wrap(apperrors.ErrTransactionNotFound, errors.New("row missing")))
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("database exploded"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app", http.NoBody))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "TRANSACTION_NOT_FOUND" {
		t.Errorf("expected TRANSACTION_NOT_FOUND, got %s", code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plain", http.NoBody))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %s", code)
	}
	if body := rec.Body.String(); strings.Contains(body, "exploded") {
		t.Errorf("internal error leaked: %s", body)
	}
}

func TestErrorHandler_Chain(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())

	stopped := func(c *gin.Context) {
		_ = c.Error(apperrors.WithMessage(apperrors.ErrInvalidInput, "bad period"))
		c.Abort()
	}
	r.GET("/aborted", stopped, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"reached": true})
	})
	r.GET("/written", func(c *gin.Context) {
		_ = c.Error(errors.New("already reported"))
		c.JSON(http.StatusAccepted, gin.H{"status": "partial"})
	})
	r.GET("/clean", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	t.Run("abort_skips_later_handlers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/aborted", http.NoBody))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		body := parseBody(t, rec)
		errObj := body["error"].(map[string]interface{})
		if errObj["code"] != "INVALID_INPUT" || errObj["message"] != "bad period" {
			t.Errorf("unexpected error body %v", errObj)
		}
		if _, ok := body["reached"]; ok {
			t.Error("handler after abort should not run")
		}
	})

	t.Run("keeps_written_response", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/written", http.NoBody))

		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", rec.Code)
		}
		if body := parseBody(t, rec); body["status"] != "partial" {
			t.Errorf("expected handler body to be kept, got %v", body)
		}
	})

	t.Run("no_error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clean", http.NoBody))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}

func TestRequestLogging(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	t.Run("generates_id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", http.NoBody))

		id := rec.Header().Get("X-Request-ID")
		if id == "" {
			t.Fatal("expected X-Request-ID header")
		}
		if rec.Body.String() != id {
			t.Errorf("expected context id %s, got %s", id, rec.Body.String())
		}
		if !uuid.IsValid(id) {
			t.Errorf("expected a UUID request id, got %q", id)
		}
	})

	t.Run("reuses_valid_id", func(t *testing.T) {
		const incoming = "0190b4a2-7c3e-7d4a-9f00-00000000abcd"
		req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
		req.Header.Set("X-Request-ID", incoming)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if got := rec.Header().Get("X-Request-ID"); got != incoming {
			t.Errorf("expected %s, got %s", incoming, got)
		}
	})

	t.Run("replaces_malformed_id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
		req.Header.Set("X-Request-ID", "evil\nid")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if got := rec.Header().Get("X-Request-ID"); got == "evil\nid" {
			t.Error("expected malformed request id to be replaced")
		}
	})
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS("http://localhost:5173"))
	r.GET("/data", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/data", http.NoBody))
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected preflight 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("unexpected allowed origin %q", got)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data", http.NoBody))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
