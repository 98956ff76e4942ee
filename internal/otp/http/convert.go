package http

import (
	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/pkg/otpsdk"
)

func toUserResponse(u domain.User) otpsdk.UserResponse {
	return otpsdk.UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Role:           string(u.Role),
		Email:          u.Email,
		Phone:          u.Phone,
		TelegramChatID: u.TelegramChatID,
		CreatedAt:      u.CreatedAt,
	}
}

func toOTPResponse(o domain.OTP) otpsdk.OTPResponse {
	return otpsdk.OTPResponse{
		ID:          o.ID,
		UserID:      o.UserID,
		OperationID: o.OperationID,
		Code:        o.Code,
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
		UsedAt:      o.UsedAt,
	}
}
