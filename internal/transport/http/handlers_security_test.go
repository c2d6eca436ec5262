package http

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/backplane-io/backplane/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func basicAuth(username, password string) map[string]string {
	token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return map[string]string{"Authorization": "Basic " + token}
}

// TestPurpose: Validates tenant context resolution: no tenant header is
// rejected, the API key grants KEY-level guest access, and a plain tenant
// id requires a real Authorization header.
// Scope: Integration Test (router + middleware + services)
// Security: Tenant scoping and anonymous access boundaries
// Expected: 401 without tenant context, guest identity through X-API-Key,
// 401 for X-Tenant-ID without credentials.
// Test Case ID: HTP-01
func TestTenantResolutionAndGuestAccess(t *testing.T) {
	env := newTestEnv(t)

	// No tenant headers at all.
	w := env.do(t, http.MethodGet, "/api/v1/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Unknown tenant id.
	w = env.do(t, http.MethodGet, "/api/v1/auth/me", map[string]string{"X-Tenant-ID": "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Unknown API key.
	w = env.do(t, http.MethodGet, "/api/v1/auth/me", map[string]string{"X-API-Key": "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Tenant id alone carries no identity: there is no guest without the key.
	w = env.do(t, http.MethodGet, "/api/v1/auth/me", env.tenantHeaders(nil), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The API key alone yields the synthetic guest.
	w = env.do(t, http.MethodGet, "/api/v1/auth/me", map[string]string{"X-API-Key": env.tenant.APIKey}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "guest:"+env.tenant.ID, body["credentials_id"])
	assert.Equal(t, "key", body["level"])

	// A deactivated tenant fails closed for key holders and identities alike.
	env.provision(t, "admin1", "hunter22", identity.LevelAdmin)
	require.NoError(t, env.tenantService.Deactivate(context.Background(), env.tenant.ID))

	w = env.do(t, http.MethodGet, "/api/v1/auth/me", map[string]string{"X-API-Key": env.tenant.APIKey}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(t, http.MethodGet, "/api/v1/auth/me", env.tenantHeaders(basicAuth("admin1", "hunter22")), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestPurpose: Validates the session flow over HTTP: login mints a bearer
// token, the token authenticates subsequent requests, and logout
// invalidates it.
// Scope: Integration Test
// Security: Session establishment and teardown
// Expected: 200 with a token on login, 401 for wrong passwords and for
// tokens after logout.
// Test Case ID: HTP-02
func TestAuthenticationFlow(t *testing.T) {
	env := newTestEnv(t)
	env.provision(t, "alice1", "hunter22", identity.LevelUser)

	// Wrong password.
	w := env.do(t, http.MethodPost, "/api/v1/auth/login", env.tenantHeaders(nil),
		LoginRequest{Username: "alice1", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Malformed body.
	w = env.do(t, http.MethodPost, "/api/v1/auth/login", env.tenantHeaders(nil), []byte("{"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Successful login.
	w = env.do(t, http.MethodPost, "/api/v1/auth/login", env.tenantHeaders(nil),
		LoginRequest{Username: "alice1", Password: "hunter22"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	assert.Greater(t, body["expires_in"].(float64), float64(0))

	// The token authenticates.
	w = env.do(t, http.MethodGet, "/api/v1/auth/me", env.tenantHeaders(bearer(token)), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice1", decodeBody(t, w)["username"])

	// Basic credentials work without a session, on any authenticated route.
	w = env.do(t, http.MethodGet, "/api/v1/auth/me", env.tenantHeaders(basicAuth("alice1", "hunter22")), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Logout severs the session.
	w = env.do(t, http.MethodPost, "/api/v1/auth/logout", env.tenantHeaders(bearer(token)), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/api/v1/auth/me", env.tenantHeaders(bearer(token)), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestPurpose: Validates that domain error kinds map to their HTTP status
// codes and never blur: 401 for identity failures, 403 for permission
// failures, 400/404/409 for validation, absence and conflicts.
// Scope: Integration Test
// Security: Authentication/authorization separation on the wire
// Expected: Each scenario returns exactly its mapped status.
// Test Case ID: HTP-03
func TestStatusCodeMapping(t *testing.T) {
	env := newTestEnv(t)
	env.provision(t, "admin1", "hunter22", identity.LevelAdmin)
	env.provision(t, "user11", "hunter22", identity.LevelUser)
	admin := env.tenantHeaders(basicAuth("admin1", "hunter22"))
	user := env.tenantHeaders(basicAuth("user11", "hunter22"))

	// 401: bad bearer token.
	w := env.do(t, http.MethodGet, "/api/v1/auth/me", env.tenantHeaders(bearer("bogus")), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 401: unsupported scheme.
	w = env.do(t, http.MethodGet, "/api/v1/auth/me", env.tenantHeaders(map[string]string{"Authorization": "Digest abc"}), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 403: a user may not declare schemas.
	w = env.do(t, http.MethodPost, "/api/v1/schemas/", user, DeclareSchemaRequest{Type: "orders"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 201 then 409: duplicate declaration.
	w = env.do(t, http.MethodPost, "/api/v1/schemas/", admin, DeclareSchemaRequest{Type: "orders"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do(t, http.MethodPost, "/api/v1/schemas/", admin, DeclareSchemaRequest{Type: "orders"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// 400: invalid type name.
	w = env.do(t, http.MethodPost, "/api/v1/schemas/", admin, DeclareSchemaRequest{Type: "9bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 404: missing schema and missing document.
	w = env.do(t, http.MethodGet, "/api/v1/schemas/missing", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodGet, "/api/v1/data/orders/no-such-id", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestPurpose: Validates the document lifecycle over HTTP under the seeded
// default ACL: users create and manage documents, everyone reads, guests
// cannot write.
// Scope: Integration Test
// Security: Default grant table enforcement end to end
// Expected: Create/read/update/delete succeed for the user; the guest
// reads but is denied creation with 403.
// Test Case ID: HTP-04
func TestDocumentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.provision(t, "admin1", "hunter22", identity.LevelAdmin)
	env.provision(t, "user11", "hunter22", identity.LevelUser)
	admin := env.tenantHeaders(basicAuth("admin1", "hunter22"))
	user := env.tenantHeaders(basicAuth("user11", "hunter22"))
	guest := map[string]string{"X-API-Key": env.tenant.APIKey}

	w := env.do(t, http.MethodPost, "/api/v1/schemas/", admin,
		DeclareSchemaRequest{Type: "orders", Definition: []byte(`{"properties":{}}`)})
	require.Equal(t, http.StatusCreated, w.Code)

	// The seeded ACL is immediately queryable.
	w = env.do(t, http.MethodGet, "/api/v1/acl/data/orders", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// User creates a document.
	w = env.do(t, http.MethodPost, "/api/v1/data/orders/", user,
		WriteDocumentRequest{Body: []byte(`{"total":42}`)})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody(t, w)
	docID, _ := created["id"].(string)
	require.NotEmpty(t, docID)
	assert.NotEmpty(t, created["owner"])

	// Everyone reads under the default policy, the guest included.
	w = env.do(t, http.MethodGet, "/api/v1/data/orders/"+docID, guest, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// The guest may not create.
	w = env.do(t, http.MethodPost, "/api/v1/data/orders/", guest,
		WriteDocumentRequest{Body: []byte(`{}`)})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Update and search.
	w = env.do(t, http.MethodPut, "/api/v1/data/orders/"+docID, user,
		WriteDocumentRequest{Body: []byte(`{"total":43}`)})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/data/orders/", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), docID)

	// forceMeta is not part of the default grants.
	w = env.do(t, http.MethodPost, "/api/v1/data/orders/", user,
		[]byte(`{"body":{},"meta":{"owner":"someone-else"}}`))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Delete.
	w = env.do(t, http.MethodDelete, "/api/v1/data/orders/"+docID, user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/api/v1/data/orders/"+docID, user, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestPurpose: Validates the file bucket surface: buckets are closed until
// an ACL entry exists, then uploads, downloads, listing and deletion work
// under it.
// Scope: Integration Test
// Security: Bucket grant enforcement end to end
// Expected: 403 before the ACL is written, full cycle afterwards, content
// round-trips byte for byte.
// Test Case ID: HTP-05
func TestFileBucketLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.provision(t, "admin1", "hunter22", identity.LevelAdmin)
	env.provision(t, "user11", "hunter22", identity.LevelUser)
	admin := env.tenantHeaders(basicAuth("admin1", "hunter22"))
	user := env.tenantHeaders(basicAuth("user11", "hunter22"))

	content := []byte("%PDF-1.4 pretend report")

	// No ACL entry: the bucket is closed.
	w := env.do(t, http.MethodPut, "/api/v1/files/uploads/reports/q1.pdf", user, content)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodGet, "/api/v1/acl/files/uploads", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Admin opens the bucket for users.
	w = env.do(t, http.MethodPut, "/api/v1/acl/files/uploads", admin,
		[]byte(`{"user":["create","search","readMine","updateMine","deleteMine"]}`))
	require.Equal(t, http.StatusOK, w.Code)

	// A user may not touch bucket grants.
	w = env.do(t, http.MethodPut, "/api/v1/acl/files/uploads", user, []byte(`{}`))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Upload, download, list, delete.
	upload := env.tenantHeaders(basicAuth("user11", "hunter22"))
	upload["Content-Type"] = "application/pdf"
	w = env.do(t, http.MethodPut, "/api/v1/files/uploads/reports/q1.pdf", upload, content)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/files/uploads/reports/q1.pdf", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, content, w.Body.Bytes())

	w = env.do(t, http.MethodGet, "/api/v1/files/uploads/", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "reports/q1.pdf")

	w = env.do(t, http.MethodDelete, "/api/v1/files/uploads/reports/q1.pdf", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/api/v1/files/uploads/reports/q1.pdf", user, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestPurpose: Validates identity administration over HTTP: provisioning
// is admin-only, capped at the caller's own level, and a password-less
// creation returns the one-time reset code.
// Scope: Integration Test
// Security: Privilege ceiling on identity creation
// Expected: 403 for users and for above-level creation; reset-pending
// identities return a code redeemable on the public reset route.
// Test Case ID: HTP-06
func TestIdentityAdministration(t *testing.T) {
	env := newTestEnv(t)
	env.provision(t, "admin1", "hunter22", identity.LevelAdmin)
	env.provision(t, "user11", "hunter22", identity.LevelUser)
	admin := env.tenantHeaders(basicAuth("admin1", "hunter22"))
	user := env.tenantHeaders(basicAuth("user11", "hunter22"))

	// Users may not provision identities.
	w := env.do(t, http.MethodPost, "/api/v1/identities/", user,
		CreateIdentityRequest{Username: "mallory", Level: "user", Password: "hunter22"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// An admin may not mint above its own level.
	w = env.do(t, http.MethodPost, "/api/v1/identities/", admin,
		CreateIdentityRequest{Username: "bigboss", Level: "super_admin", Password: "hunter22"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodPost, "/api/v1/identities/", admin,
		CreateIdentityRequest{Username: "bigboss", Level: "owner", Password: "hunter22"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Password-less creation returns the reset code.
	w = env.do(t, http.MethodPost, "/api/v1/identities/", admin,
		CreateIdentityRequest{Username: "newbie1", Level: "user"})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["active"])
	resetCode, _ := body["reset_code"].(string)
	require.NotEmpty(t, resetCode)
	credsID, _ := body["credentials_id"].(string)

	// The reset route is public: the code is the proof.
	w = env.do(t, http.MethodPost, "/api/v1/auth/reset/"+credsID, env.tenantHeaders(nil),
		CompleteResetRequest{Password: "newpass99", ResetCode: resetCode})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decodeBody(t, w)["access_token"])

	// A wrong code is rejected.
	w = env.do(t, http.MethodPost, "/api/v1/auth/reset/"+credsID, env.tenantHeaders(nil),
		CompleteResetRequest{Password: "again000", ResetCode: "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Self-read is allowed, foreign read is not.
	w = env.do(t, http.MethodGet, "/api/v1/identities/"+credsID, env.tenantHeaders(basicAuth("newbie1", "newpass99")), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/api/v1/identities/"+credsID, user, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodGet, "/api/v1/identities/", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestPurpose: Validates the operator surface: tenant management requires
// SUPER_ADMIN or above, and key rotation invalidates guest access through
// the old key.
// Scope: Integration Test
// Security: Operator privilege boundary
// Expected: 403 below super-admin, 201 for the operator, old API key dead
// after rotation.
// Test Case ID: HTP-07
func TestOperatorSurface(t *testing.T) {
	env := newTestEnv(t)
	env.provision(t, "admin1", "hunter22", identity.LevelAdmin)
	env.provision(t, "op1111", "hunter22", identity.LevelSuperAdmin)
	admin := env.tenantHeaders(basicAuth("admin1", "hunter22"))
	operator := env.tenantHeaders(basicAuth("op1111", "hunter22"))

	// Tenant administration is closed below super-admin.
	w := env.do(t, http.MethodPost, "/api/v1/tenants/", admin, CreateTenantRequest{Name: "globex"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/tenants/", operator, CreateTenantRequest{Name: "globex"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, decodeBody(t, w)["apiKey"])

	w = env.do(t, http.MethodPost, "/api/v1/tenants/", operator, CreateTenantRequest{Name: "globex"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/tenants/", operator, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Rotation kills the old key.
	oldKey := env.tenant.APIKey
	w = env.do(t, http.MethodPost, "/api/v1/tenants/"+env.tenant.ID+"/rotate-key", operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	newKey, _ := decodeBody(t, w)["apiKey"].(string)
	require.NotEmpty(t, newKey)
	assert.NotEqual(t, oldKey, newKey)

	w = env.do(t, http.MethodGet, "/api/v1/auth/me", map[string]string{"X-API-Key": oldKey}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(t, http.MethodGet, "/api/v1/auth/me", map[string]string{"X-API-Key": newKey}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestPurpose: Validates the password policy surface: the default policy
// is served when none is stored, admins may replace it, and the stored
// policy immediately governs new credentials.
// Scope: Integration Test
// Security: Tenant credential policy management
// Expected: 200 with defaults, 403 for users, new policy enforced on the
// next provisioning call.
// Test Case ID: HTP-08
func TestPasswordPolicyEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.provision(t, "admin1", "hunter22", identity.LevelAdmin)
	env.provision(t, "user11", "hunter22", identity.LevelUser)
	admin := env.tenantHeaders(basicAuth("admin1", "hunter22"))
	user := env.tenantHeaders(basicAuth("user11", "hunter22"))

	w := env.do(t, http.MethodGet, "/api/v1/password-policy", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, identity.DefaultUsernameRegex, decodeBody(t, w)["usernameRegex"])

	w = env.do(t, http.MethodPut, "/api/v1/password-policy", user,
		identity.DefaultPasswordPolicy())
	assert.Equal(t, http.StatusForbidden, w.Code)

	strict := identity.DefaultPasswordPolicy()
	strict.PasswordRegex = "^.{12,}$"
	w = env.do(t, http.MethodPut, "/api/v1/password-policy", admin, strict)
	require.Equal(t, http.StatusOK, w.Code)

	// The stored policy bites immediately.
	w = env.do(t, http.MethodPost, "/api/v1/identities/", admin,
		CreateIdentityRequest{Username: "short11", Level: "user", Password: "tooshort"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, http.MethodPost, "/api/v1/identities/", admin,
		CreateIdentityRequest{Username: "long111", Level: "user", Password: "longenoughpassword"})
	assert.Equal(t, http.StatusCreated, w.Code)
}
