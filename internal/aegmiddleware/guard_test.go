// file: internal/aegmiddleware/guard_test.go

package aegmiddleware_test

import (
	"RangeGate/internal/aegmiddleware"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const guardHeader = "X-Range-Key"

func serveGuarded(g *aegmiddleware.AccessGuard, ip, key string) (*httptest.ResponseRecorder, bool) {
	return serveGuardedWith(g, ip, key, nil)
}

func serveGuardedWith(g *aegmiddleware.AccessGuard, ip, key string, headers map[string]string) (*httptest.ResponseRecorder, bool) {
	called := false
	h := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest("POST", "/api/v1/gateway", nil)
	req.RemoteAddr = ip + ":40000"
	if key != "" {
		req.Header.Set(guardHeader, key)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, called
}

func TestAccessGuard_SharedSecret(t *testing.T) {
	g, err := aegmiddleware.NewAccessGuard(aegmiddleware.GuardOptions{Header: guardHeader, Secret: "s3cret"})
	require.NoError(t, err)

	rr, called := serveGuarded(g, "192.0.2.1", "s3cret")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, called)

	for _, key := range []string{"", "wrong", "s3cret ", "S3CRET"} {
		rr, called = serveGuarded(g, "192.0.2.1", key)
		assert.Equal(t, http.StatusForbidden, rr.Code, "key=%q", key)
		assert.False(t, called, "下游处理器不应被调用")
	}

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Forbidden", body["error"])
}

func TestAccessGuard_BcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("mobile-key"), bcrypt.MinCost)
	require.NoError(t, err)
	g, err := aegmiddleware.NewAccessGuard(aegmiddleware.GuardOptions{Header: guardHeader, SecretHash: string(hash)})
	require.NoError(t, err)

	assert.True(t, g.Verify("mobile-key"))
	assert.False(t, g.Verify("mobile-key2"))
	assert.False(t, g.Verify(""))

	_, err = aegmiddleware.NewAccessGuard(aegmiddleware.GuardOptions{Header: guardHeader, SecretHash: "not-a-hash"})
	assert.Error(t, err)
}

func TestAccessGuard_FailsClosedWithoutSecret(t *testing.T) {
	g, err := aegmiddleware.NewAccessGuard(aegmiddleware.GuardOptions{Header: guardHeader})
	require.NoError(t, err)
	rr, called := serveGuarded(g, "192.0.2.1", "anything")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.False(t, called)

	_, err = aegmiddleware.NewAccessGuard(aegmiddleware.GuardOptions{Secret: "x"})
	assert.Error(t, err, "header 为空应当报错")
}

func TestAccessGuard_Lockout(t *testing.T) {
	g, err := aegmiddleware.NewAccessGuard(aegmiddleware.GuardOptions{
		Header: guardHeader, Secret: "s3cret", MaxFailures: 3, Lockout: 200 * time.Millisecond,
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		rr, _ := serveGuarded(g, "192.0.2.9", "guess")
		assert.Equal(t, http.StatusForbidden, rr.Code)
	}

	rr, called := serveGuarded(g, "192.0.2.9", "s3cret")
	assert.Equal(t, http.StatusForbidden, rr.Code, "锁定期间即使密钥正确也应拒绝")
	assert.False(t, called)

	rr, called = serveGuarded(g, "192.0.2.10", "s3cret")
	assert.Equal(t, http.StatusOK, rr.Code, "其他IP不受影响")
	assert.True(t, called)

	time.Sleep(300 * time.Millisecond)
	rr, called = serveGuarded(g, "192.0.2.9", "s3cret")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, called)
}

func TestAccessGuard_LockoutIgnoresForwardedHeaders(t *testing.T) {
	g, err := aegmiddleware.NewAccessGuard(aegmiddleware.GuardOptions{
		Header: guardHeader, Secret: "s3cret", MaxFailures: 3, Lockout: time.Minute,
	})
	require.NoError(t, err)

	const attacker, victim, rotator = "203.0.113.66", "198.51.100.5", "203.0.113.77"

	t.Run("伪造的转发头不能锁定其他IP", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			serveGuardedWith(g, attacker, "guess", map[string]string{
				"X-Forwarded-For": victim,
				"X-Real-IP":       victim,
			})
		}
		rr, called := serveGuarded(g, victim, "s3cret")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, called)
	})

	t.Run("轮换转发头无法绕过锁定", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			serveGuardedWith(g, rotator, "guess", map[string]string{
				"X-Forwarded-For": fmt.Sprintf("10.0.0.%d", i),
			})
		}
		rr, called := serveGuarded(g, rotator, "s3cret")
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.False(t, called)
	})
}
