package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"pharmacy/m/domain"
)

func TestPasswordsRoundTrip(t *testing.T) {
	p := NewPasswords(bcrypt.MinCost)

	digest, err := p.Hash("s3cret!")
	require.NoError(t, err)

	assert.True(t, p.Verify("s3cret!", digest))
	assert.False(t, p.Verify("S3cret!", digest))
	assert.False(t, p.NeedsRehash(digest))
}

func TestPasswordsAcceptLegacyDigest(t *testing.T) {
	p := NewPasswords(bcrypt.MinCost)
	digest := LegacyDigest("admin123", []byte("0123456789abcdef"), 1000)

	assert.True(t, p.Verify("admin123", digest))
	assert.False(t, p.Verify("admin124", digest))
	assert.True(t, p.NeedsRehash(digest))
}

func TestPasswordsRejectMalformedLegacyDigest(t *testing.T) {
	p := NewPasswords(bcrypt.MinCost)

	for _, digest := range []string{
		"pbkdf2_sha256$",
		"pbkdf2_sha256$abc$c2FsdA==$ZGlnZXN0",
		"pbkdf2_sha256$1000$***$ZGlnZXN0",
		"pbkdf2_sha256$1000$c2FsdA==$",
		"",
	} {
		assert.False(t, p.Verify("anything", digest), digest)
	}
}

func TestTokensIssueAndParse(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	signed, err := tokens.Issue(42)
	require.NoError(t, err)

	userID, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	other := NewTokens("other-secret", time.Hour)
	_, err = other.Parse(signed)
	assert.Error(t, err)
}

func TestTokensExpire(t *testing.T) {
	tokens := NewTokens("test-secret", time.Minute)
	issuedAt := time.Now()
	tokens.now = func() time.Time { return issuedAt }

	signed, err := tokens.Issue(7)
	require.NoError(t, err)

	tokens.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	_, err = tokens.Parse(signed)
	assert.Error(t, err)
}

func TestTokensAreUnique(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	a, err := tokens.Issue(1)
	require.NoError(t, err)
	b, err := tokens.Issue(1)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestAuthorizeMatrix(t *testing.T) {
	user := func(role domain.Role) *domain.User {
		return &domain.User{ID: 1, Role: role, Active: true}
	}

	cases := []struct {
		op      Operation
		allowed []domain.Role
		denied  []domain.Role
	}{
		{OpReadCatalog, []domain.Role{domain.RoleAdmin, domain.RolePharmacist, domain.RoleInventory, domain.RoleCashier}, nil},
		{OpWriteMedicine, []domain.Role{domain.RoleAdmin, domain.RolePharmacist, domain.RoleInventory}, []domain.Role{domain.RoleCashier}},
		{OpWritePurchases, []domain.Role{domain.RoleInventory}, []domain.Role{domain.RoleCashier}},
		{OpReadSales, []domain.Role{domain.RoleCashier, domain.RolePharmacist}, []domain.Role{domain.RoleInventory}},
		{OpDeleteSales, []domain.Role{domain.RoleAdmin}, []domain.Role{domain.RoleCashier, domain.RolePharmacist, domain.RoleInventory}},
		{OpManageUsers, nil, []domain.Role{domain.RoleAdmin, domain.RolePharmacist, domain.RoleInventory, domain.RoleCashier}},
	}

	for _, tc := range cases {
		assert.True(t, Authorize(user(domain.RoleSuperAdmin), tc.op), "superuser on %s", tc.op)
		for _, role := range tc.allowed {
			assert.True(t, Authorize(user(role), tc.op), "%s on %s", role, tc.op)
		}
		for _, role := range tc.denied {
			assert.False(t, Authorize(user(role), tc.op), "%s on %s", role, tc.op)
		}
	}
}

func TestAuthorizeIsCaseSensitiveAndNeedsActiveUser(t *testing.T) {
	assert.False(t, Authorize(&domain.User{Role: "admin", Active: true}, OpReadCatalog))
	assert.False(t, Authorize(&domain.User{Role: domain.RoleAdmin, Active: false}, OpReadCatalog))
	assert.False(t, Authorize(nil, OpReadCatalog))
	assert.False(t, Allow(domain.RoleCashier, nil))
	assert.True(t, Allow(domain.RoleSuperAdmin, nil))
}
