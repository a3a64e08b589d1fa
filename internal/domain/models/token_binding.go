package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/sfauth/pkg/constants"
)

// TokenBinding ties a token to a device and/or source IP. A token may carry
// zero bindings, which is a valid state meaning "unbound"; binding checks
// fail open in that case.
type TokenBinding struct {
	// BindingID is the primary key.
	BindingID string `json:"binding_id" db:"binding_id"`

	// TokenID references the bound token. The binding does not own the token.
	TokenID string `json:"token_id" db:"token_id"`

	// BindingType is DEVICE, IP, or DEVICE_IP and selects which attributes
	// Matches compares.
	BindingType constants.BindingType `json:"binding_type" db:"binding_type"`

	// DeviceID is set for DEVICE and DEVICE_IP bindings.
	DeviceID string `json:"device_id,omitempty" db:"device_id"`

	// BindingIP is set for IP and DEVICE_IP bindings.
	BindingIP string `json:"binding_ip,omitempty" db:"binding_ip"`

	// Status mirrors the token's lifecycle.
	Status constants.BindingStatus `json:"status" db:"status"`

	// BindingTime is when the binding was created.
	BindingTime time.Time `json:"binding_time" db:"binding_time"`

	// ExpireTime mirrors the token's expiry.
	ExpireTime *time.Time `json:"expire_time,omitempty" db:"expire_time"`
}

// TableName maps the model onto its table.
func (TokenBinding) TableName() string { return "token_bindings" }

// NewTokenBinding creates an ACTIVE binding for a token. The binding type is
// DEVICE_IP when both attributes are present, otherwise DEVICE or IP for
// whichever one is.
func NewTokenBinding(token *Token, deviceID, ip string) *TokenBinding {
	var bindingType constants.BindingType
	switch {
	case deviceID != "" && ip != "":
		bindingType = constants.BindingTypeDeviceIP
	case deviceID != "":
		bindingType = constants.BindingTypeDevice
	default:
		bindingType = constants.BindingTypeIP
	}

	expireAt := token.AccessTokenExpire

	return &TokenBinding{
		BindingID:   uuid.NewString(),
		TokenID:     token.TokenID,
		BindingType: bindingType,
		DeviceID:    deviceID,
		BindingIP:   ip,
		Status:      constants.BindingStatusActive,
		BindingTime: time.Now().UTC(),
		ExpireTime:  &expireAt,
	}
}

// Matches compares the presented device and IP against the binding per its
// type. Unrecognized binding types never match.
func (b *TokenBinding) Matches(deviceID, ip string) bool {
	switch b.BindingType {
	case constants.BindingTypeDeviceIP:
		return b.DeviceID == deviceID && b.BindingIP == ip
	case constants.BindingTypeDevice:
		return b.DeviceID == deviceID
	case constants.BindingTypeIP:
		return b.BindingIP == ip
	default:
		return false
	}
}
