package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/haierkeys/fast-note-service/internal/dto"
	"github.com/haierkeys/fast-note-service/pkg/app"
	"github.com/haierkeys/fast-note-service/pkg/code"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserFixture(register bool) (UserService, *mockUserRepo, app.TokenManager) {
	repo := newMockUserRepo()
	tm := app.NewTokenManager(app.TokenConfig{SecretKey: "test-secret"})
	cfg := &ServiceConfig{User: UserServiceConfig{RegisterIsEnable: register}}
	return NewUserService(repo, tm, nil, cfg), repo, tm
}

func TestUserService_SignupLogin(t *testing.T) {
	ctx := context.Background()
	svc, repo, tm := newUserFixture(true)

	auth, err := svc.Signup(ctx, &dto.UserSignupRequest{Username: "alice", Email: "Alice@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", auth.User.Email)

	user, err := tm.Parse(auth.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.User.UID, user.UID)

	// 密码以哈希形式保存
	stored := repo.users[auth.User.UID]
	assert.NotEqual(t, "secret1", stored.Password)

	_, err = svc.Signup(ctx, &dto.UserSignupRequest{Username: "again", Email: "alice@example.com", Password: "secret2"})
	assert.ErrorIs(t, err, code.ErrorUserAlreadyExists)
	assert.Equal(t, 409, code.ErrorUserAlreadyExists.StatusCode())

	login, err := svc.Login(ctx, &dto.UserLoginRequest{Email: "ALICE@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, auth.User.UID, login.User.UID)

	_, err = svc.Login(ctx, &dto.UserLoginRequest{Email: "alice@example.com", Password: "wrong!"})
	assert.ErrorIs(t, err, code.ErrorUserInvalidCredentials)

	_, err = svc.Login(ctx, &dto.UserLoginRequest{Email: "bob@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, code.ErrorUserNotFound)
}

func TestUserService_RegisterDisabled(t *testing.T) {
	svc, _, _ := newUserFixture(false)
	_, err := svc.Signup(context.Background(), &dto.UserSignupRequest{Username: "a", Email: "a@b.c", Password: "secret1"})
	assert.ErrorIs(t, err, code.ErrorUserRegisterIsDisable)
}

func TestUserService_ProfileAndVerify(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newUserFixture(true)

	auth, err := svc.Signup(ctx, &dto.UserSignupRequest{Username: "carol", Email: "carol@example.com", Password: "secret1"})
	require.NoError(t, err)

	profile, err := svc.Profile(ctx, auth.User.UID)
	require.NoError(t, err)
	assert.Equal(t, "carol", profile.Username)

	user, err := svc.Verify(ctx, auth.User.UID)
	require.NoError(t, err)
	assert.Empty(t, user.Password)

	// 令牌有效但用户已不存在
	_, err = svc.Verify(ctx, 999)
	assert.ErrorIs(t, err, code.ErrorInvalidUserAuthToken)
	assert.Equal(t, 401, code.ErrorInvalidUserAuthToken.StatusCode())

	_, err = svc.Profile(ctx, 999)
	assert.ErrorIs(t, err, code.ErrorUserNotFound)
}

// 任意新邮箱注册成功，且令牌身份与新用户一致
func TestProperty_SignupIssuesOwnToken(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	svc, _, tm := newUserFixture(true)
	seq := 0

	properties.Property("signup token identifies the new user", prop.ForAll(
		func(local string) bool {
			seq++
			email := fmt.Sprintf("%s%d@example.com", local, seq)
			auth, err := svc.Signup(context.Background(), &dto.UserSignupRequest{Username: local, Email: email, Password: "password"})
			if err != nil {
				return false
			}
			user, err := tm.Parse(auth.Token)
			return err == nil && user.UID == auth.User.UID
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
