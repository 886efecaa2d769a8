package app

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestTokenManager_GenerateAndParse(t *testing.T) {
	cfg := TokenConfig{
		SecretKey: "user-secret",
		Issuer:    "user-issuer",
	}
	tm := NewTokenManager(cfg)

	uid := int64(1001)

	// 1. 测试生成和解析
	token, err := tm.Generate(uid)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	parsedUser, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if parsedUser.UID != uid {
		t.Errorf("Expected UID %d, got %d", uid, parsedUser.UID)
	}
	if parsedUser.Issuer != cfg.Issuer {
		t.Errorf("Expected Issuer %s, got %s", cfg.Issuer, parsedUser.Issuer)
	}

	// 默认一小时过期
	expected := time.Now().Add(time.Hour)
	if d := parsedUser.ExpiresAt.Sub(expected); d > time.Second || d < -time.Second {
		t.Errorf("Expected ExpiresAt around %v, got %v", expected, parsedUser.ExpiresAt)
	}

	// 2. 测试错误的密钥
	wrong := NewTokenManager(TokenConfig{SecretKey: "other-secret", Issuer: cfg.Issuer})
	wrongToken, _ := wrong.Generate(uid)
	if _, err := tm.Parse(wrongToken); err != ErrInvalidToken {
		t.Errorf("Expected ErrInvalidToken for wrong key, got %v", err)
	}

	// 3. 测试篡改后的 Token
	if err := tm.Validate(token + "tampered"); err != ErrInvalidToken {
		t.Errorf("Expected ErrInvalidToken for tampered token, got %v", err)
	}

	// 4. 测试空串和乱码
	for _, s := range []string{"", "abc", "a.b.c", "Bearer " + token} {
		if _, err := tm.Parse(s); err != ErrInvalidToken {
			t.Errorf("Expected ErrInvalidToken for %q, got %v", s, err)
		}
	}
}

func TestTokenManager_Expiry(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := issued

	tm := newTokenManager(TokenConfig{SecretKey: "k"}, func() time.Time { return clock })

	token, err := tm.Generate(7)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	clock = issued.Add(59 * time.Minute)
	if _, err := tm.Parse(token); err != nil {
		t.Fatalf("token should still be valid after 59m: %v", err)
	}

	clock = issued.Add(61 * time.Minute)
	if _, err := tm.Parse(token); err != ErrInvalidToken {
		t.Fatalf("Expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestTokenManager_IssuerMismatch(t *testing.T) {
	a := NewTokenManager(TokenConfig{SecretKey: "k", Issuer: "a"})
	b := NewTokenManager(TokenConfig{SecretKey: "k", Issuer: "b"})

	token, _ := a.Generate(1)
	if _, err := b.Parse(token); err != ErrInvalidToken {
		t.Fatalf("Expected ErrInvalidToken across issuers, got %v", err)
	}
}

// 任意单比特翻转都会使 Token 失效
func TestProperty_TokenRoundTripAndBitFlip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	tm := NewTokenManager(TokenConfig{SecretKey: "property-secret"})

	properties.Property("verify(issue(u)) == u", prop.ForAll(
		func(uid int64) bool {
			token, err := tm.Generate(uid)
			if err != nil {
				return false
			}
			user, err := tm.Parse(token)
			return err == nil && user.UID == uid
		},
		gen.Int64Range(1, 1<<53),
	))

	properties.Property("single bit mutation is rejected", prop.ForAll(
		func(uid int64, pos int, bit uint) bool {
			token, err := tm.Generate(uid)
			if err != nil {
				return false
			}
			b := []byte(token)
			i := pos % len(b)
			b[i] ^= 1 << (bit % 8)
			_, err = tm.Parse(string(b))
			return err == ErrInvalidToken
		},
		gen.Int64Range(1, 1<<53),
		gen.IntRange(0, 4096),
		gen.UIntRange(0, 7),
	))

	properties.TestingRun(t)
}
