package policy

import (
	"net/http"

	"github.com/LittleKatyusha/Sapi/auth"
	"github.com/LittleKatyusha/Sapi/httpx"
	"github.com/LittleKatyusha/Sapi/i18n"
)

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

// Roles maps a role name to the permissions it grants.
type Roles map[string][]Permission

// DefaultRoles is the role table used by the API server.
func DefaultRoles() Roles {
	return Roles{
		RoleAdmin: {PermissionSuperAdmin},
		RoleOperator: {
			"master:*",
			"pembelian:*",
			"pembayaran:*",
			"hr:list",
			"hr:view",
		},
		RoleViewer: {"*:list", "*:view"},
	}
}

// Can reports whether role is granted resource:action.
func (r Roles) Can(role, resource string, action Action) bool {
	want := NewPermission(resource, action)
	for _, p := range r[role] {
		if p.Matches(want) {
			return true
		}
	}
	return false
}

// RequirePermission returns middleware rejecting users whose role lacks
// resource:action. Anonymous requests get 401, authenticated ones 403.
func (r Roles) RequirePermission(resource string, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			lang := i18n.LangFromContext(req.Context())
			u, ok := auth.UserFromContext(req.Context())
			if !ok {
				httpx.JSONError(w, http.StatusUnauthorized, i18n.T(lang, "unauthenticated"), nil)
				return
			}
			if !r.Can(u.Role, resource, action) {
				httpx.JSONError(w, http.StatusForbidden, i18n.T(lang, "forbidden"), nil)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
