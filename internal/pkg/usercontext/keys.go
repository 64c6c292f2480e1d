package usercontext

// Shared Locals keys used across controllers and middlewares
const (
	KeyUserContext  = "USER_CONTEXT"
	KeyAdminContext = "ADMIN_CONTEXT"
)
