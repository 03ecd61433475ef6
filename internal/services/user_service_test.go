// File: internal/services/user_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisaarthi/agrisaarthi/internal/auth"
	"github.com/agrisaarthi/agrisaarthi/internal/domain"
	"github.com/agrisaarthi/agrisaarthi/internal/repository/clientstate"
)

const testJWTSecret = "unit-test-secret"

func newUserFixture(t *testing.T) (*UserService, *fakeUserRepo, *fakeStateRepo) {
	t.Helper()
	userRepo := newFakeUserRepo()
	stateRepo := newFakeStateRepo()
	svc := NewUserService(userRepo, stateRepo, testJWTSecret, &NoOpLogger{})
	return svc, userRepo, stateRepo
}

func registerTestUser(t *testing.T, svc *UserService) *domain.User {
	t.Helper()
	created, err := svc.Register(context.Background(), &domain.User{
		FullName: "Asha Patil",
		Email:    "asha@example.com",
		Language: "mr",
		Region:   "Maharashtra",
		Crops:    domain.CropList{"cotton", "soybean"},
	}, "harvest-moon-9")
	require.NoError(t, err)
	return created
}

func TestRegister_AssignsIDAndHashesPassword(t *testing.T) {
	svc, userRepo, _ := newUserFixture(t)

	created := registerTestUser(t, svc)
	assert.NotEmpty(t, created.ID)
	assert.NotEmpty(t, created.PasswordHash)
	assert.NotEqual(t, "harvest-moon-9", created.PasswordHash)

	stored, err := userRepo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", stored.Email)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	registerTestUser(t, svc)

	_, err := svc.Register(context.Background(), &domain.User{
		FullName: "Another Asha",
		Email:    "asha@example.com",
		Region:   "Karnataka",
	}, "different-pass-1")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_RejectsInvalidProfile(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	_, err := svc.Register(context.Background(), &domain.User{
		FullName: "",
		Email:    "x@example.com",
		Region:   "Punjab",
	}, "valid-password")
	assert.Error(t, err)

	_, err = svc.Register(context.Background(), &domain.User{
		FullName: "Valid Name",
		Email:    "y@example.com",
		Region:   "Punjab",
	}, "short")
	assert.Error(t, err)
}

func TestLogin_IssuesValidToken(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	created := registerTestUser(t, svc)

	u, token, err := svc.Login(context.Background(), "asha@example.com", "harvest-moon-9")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)

	subject, err := auth.ValidateToken(token, []byte(testJWTSecret))
	require.NoError(t, err)
	assert.Equal(t, created.ID, subject)
}

func TestLogin_BadCredentialsAreIndistinguishable(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	registerTestUser(t, svc)

	_, _, err := svc.Login(context.Background(), "asha@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "harvest-moon-9")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_RemembersLastUser(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	created := registerTestUser(t, svc)

	assert.Empty(t, svc.LastUser(context.Background()))

	_, _, err := svc.Login(context.Background(), "asha@example.com", "harvest-moon-9")
	require.NoError(t, err)
	assert.Equal(t, created.ID, svc.LastUser(context.Background()))

	svc.ForgetLastUser(context.Background())
	assert.Empty(t, svc.LastUser(context.Background()))
}

func TestLastUser_CorruptBlobIgnored(t *testing.T) {
	svc, _, stateRepo := newUserFixture(t)
	require.NoError(t, stateRepo.Put(context.Background(), clientstate.KeyLastUser, []byte("{not json")))

	assert.Empty(t, svc.LastUser(context.Background()))
}

func TestUpdateProfile_AppliesOnlyProvidedFields(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	created := registerTestUser(t, svc)

	updated, err := svc.UpdateProfile(context.Background(), created.ID, "", "9876543210", "hi", "", []string{"wheat"})
	require.NoError(t, err)
	assert.Equal(t, "Asha Patil", updated.FullName)
	assert.Equal(t, "9876543210", updated.Phone)
	assert.Equal(t, "hi", updated.Language)
	assert.Equal(t, "Maharashtra", updated.Region)
	assert.Equal(t, domain.CropList{"wheat"}, updated.Crops)
}

func TestSearch_ShortQueryReturnsNothing(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	registerTestUser(t, svc)

	results, err := svc.Search(context.Background(), "someone-else", "a")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_ExcludesSearcher(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	created := registerTestUser(t, svc)

	results, err := svc.Search(context.Background(), created.ID, "asha")
	require.NoError(t, err)
	assert.Empty(t, results)
}
