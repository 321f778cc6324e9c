package dto

type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the error body shape. Detail mirrors FastAPI error
// bodies, which some deployments return instead of Message.
type ErrorResponse struct {
	Message string `json:"message,omitempty"`
	Detail  any    `json:"detail,omitempty"`
}
