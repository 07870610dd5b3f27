package orgcontext

// Shared Locals/session keys used across controllers and middlewares
const (
	AuthKey          = "authenticated"
	KeyUserID        = "user_id"
	KeyUserName      = "user_name"
	KeyOrgID         = "org_id"
	KeyOrgType       = "org_type"
	KeyFromProtected = "from_protected"
)
