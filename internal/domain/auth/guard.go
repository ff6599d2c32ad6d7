package auth

// Decision is the outcome of evaluating a protected view.
type Decision int

const (
	DecisionLoading Decision = iota
	DecisionRedirectToLogin
	DecisionAccessDenied
	DecisionRender
)

func (d Decision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionRedirectToLogin:
		return "redirect_to_login"
	case DecisionAccessDenied:
		return "access_denied"
	case DecisionRender:
		return "render"
	default:
		return "unknown"
	}
}

// GuardInput is everything the guard looks at for one navigation.
type GuardInput struct {
	Loading         bool
	IsAuthenticated bool
	IsAdmin         bool
	// HasStoredToken is true when the credential store holds both a token and a user id.
	HasStoredToken bool
	RequireAdmin   bool
}

// Decide evaluates a navigation to a protected view.
//
// A stored token without a loaded profile never grants access: the view
// waits until the profile (and therefore the role) is confirmed. A loaded
// non-admin profile always loses to RequireAdmin.
func Decide(in GuardInput) Decision {
	if in.Loading {
		return DecisionLoading
	}
	if !in.IsAuthenticated {
		if in.HasStoredToken {
			return DecisionLoading
		}
		return DecisionRedirectToLogin
	}
	if in.RequireAdmin && !in.IsAdmin {
		return DecisionAccessDenied
	}
	return DecisionRender
}
