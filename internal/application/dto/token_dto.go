package dto

// TokenValidateRequest 令牌校验请求 DTO
type TokenValidateRequest struct {
	AccessToken string `json:"access_token" validate:"required,min=1"`
}

// TokenValidateResponse 令牌校验响应 DTO
type TokenValidateResponse struct {
	Valid bool `json:"valid"`
}

// TokenRevokeRequest 令牌吊销请求 DTO
type TokenRevokeRequest struct {
	AccessToken string `json:"access_token" validate:"required,min=1"`
}

// TokenRevokeResponse 令牌吊销响应 DTO
type TokenRevokeResponse struct {
	Revoked bool `json:"revoked"`
}

// TokenBindRequest 令牌绑定请求 DTO
type TokenBindRequest struct {
	AccessToken string `json:"access_token" validate:"required,min=1"`
	DeviceID    string `json:"device_id" validate:"omitempty,max=128"`
	IP          string `json:"ip" validate:"omitempty,ip"`
}

// TokenBindCheckRequest 令牌绑定校验请求 DTO
type TokenBindCheckRequest struct {
	AccessToken string `json:"access_token" validate:"required,min=1"`
	DeviceID    string `json:"device_id" validate:"omitempty,max=128"`
	IP          string `json:"ip" validate:"omitempty,ip"`
}

// TokenBindCheckResponse 令牌绑定校验响应 DTO
type TokenBindCheckResponse struct {
	Allowed bool `json:"allowed"`
}
