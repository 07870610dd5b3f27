package constants

// Static route constants
const (
	APIRoute    = "/api"
	APIV1Route  = "/api/v1"
	PublicRoute = "/"
	// Activation endpoint used when building mail links
	AuthActivatePath = "/api/v1/auth/activate"
)
