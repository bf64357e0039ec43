package models

// LoginRequest is accepted as JSON or as a form post.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=64"`
	Password string `json:"password" form:"password" validate:"required,max=128"`
}

type RegisterRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6,max=128"`
}

// InstrumentRequest selects the synchronized pair.
type InstrumentRequest struct {
	Symbol string `json:"symbol" form:"symbol" validate:"required,alphanum,max=16"`
}

// StreamRequest configures a websocket subscription.
type StreamRequest struct {
	Buffer int `query:"buffer" default:"64" validate:"gte=1,lte=1024"`
}
