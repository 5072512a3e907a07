package utils

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 7*24*time.Hour)

	token, err := tm.GenerateAccessToken("user-1", "a@x.com")
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestValidateTokenRejects(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	valid, err := tm.GenerateAccessToken("user-1", "a@x.com")
	require.NoError(t, err)

	expired := NewTokenManager("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.GenerateAccessToken("user-1", "a@x.com")
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id": "user-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		tm    *TokenManager
	}{
		{"wrong secret", valid, NewTokenManager("other", time.Hour)},
		{"expired", expiredToken, tm},
		{"none algorithm", unsigned, tm},
		{"garbage", "not-a-token", tm},
		{"tampered", valid[:len(valid)-2] + "xx", tm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tm.ValidateToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, CheckPassword("hunter22", hash))
	assert.False(t, CheckPassword("hunter23", hash))
}

func TestEncryptDecrypt(t *testing.T) {
	key := strings.Repeat("k", 32)

	sealed, err := Encrypt(key, []byte("JBSWY3DPEHPK3PXP"))
	require.NoError(t, err)

	plain, err := Decrypt(key, sealed)
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", string(plain))

	_, err = Encrypt("short", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = Decrypt(strings.Repeat("z", 32), sealed)
	assert.Error(t, err)
}

func TestTOTP(t *testing.T) {
	secret, url, err := GenerateTOTPSecret("a@x.com")
	require.NoError(t, err)
	assert.Contains(t, url, "otpauth://totp/MindSpend")

	code, err := TOTPCode(secret, time.Now())
	require.NoError(t, err)
	assert.True(t, VerifyTOTP(secret, code))
	assert.False(t, VerifyTOTP(secret, "abcdef"))
}

func TestMaskString(t *testing.T) {
	prev := IsProduction
	t.Cleanup(func() { IsProduction = prev })

	msg := "user a@x.com spent $120.50 on 3f8e9a2c-1b4d-4c1e-9f2a-123456789abc"

	IsProduction = false
	assert.Equal(t, msg, MaskString(msg))

	IsProduction = true
	masked := MaskString(msg)
	assert.NotContains(t, masked, "a@x.com")
	assert.NotContains(t, masked, "120.50")
	assert.Contains(t, masked, "3f8e9a2c...")
	assert.Equal(t, "***", MaskAmount(10))
	assert.Equal(t, "3f8e9a2c...", MaskID("3f8e9a2c-1b4d-4c1e-9f2a-123456789abc"))
}

func TestRenderBudgetAlertEmail(t *testing.T) {
	html, text, err := RenderBudgetAlertEmail(1000, 950, 95, "monthly", "http://localhost:3000")
	require.NoError(t, err)
	assert.Contains(t, html, "95.00%")
	assert.Contains(t, html, "$1000.00")
	assert.Contains(t, html, "http://localhost:3000/dashboard")
	assert.Contains(t, text, "$950.00")
	assert.Equal(t, "Budget Alert - You've used 95% of your budget", BudgetAlertSubject(95))
}

func TestSafeLogLevels(t *testing.T) {
	var buf bytes.Buffer
	prevOut, prevFlags, prevLevel := log.Writer(), log.Flags(), LogLevel
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
		LogLevel = prevLevel
	})

	tests := []struct {
		level string
		want  []string
		quiet []string
	}{
		{"DEBUG", []string{"[DEBUG]", "[INFO]", "[WARN]", "[ERROR]"}, nil},
		{"INFO", []string{"[INFO]", "[WARN]", "[ERROR]"}, []string{"[DEBUG]"}},
		{"WARN", []string{"[WARN]", "[ERROR]"}, []string{"[DEBUG]", "[INFO]"}},
		{"ERROR", []string{"[ERROR]"}, []string{"[DEBUG]", "[INFO]", "[WARN]"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			LogLevel = ParseLogLevel(tt.level)

			SafeDebug("d")
			SafeInfo("i")
			SafeWarn("w")
			SafeError("e")

			out := buf.String()
			for _, s := range tt.want {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.quiet {
				assert.NotContains(t, out, s)
			}
		})
	}
}
