package domain

import (
	"fmt"
	"time"
)

type User struct {
	ID             string
	Username       string
	PasswordHash   string // argon2id PHC string
	Role           Role
	Email          string
	Phone          string
	TelegramChatID string
	CreatedAt      time.Time
}

// Recipient returns the address for ch. EMAIL and FILE fall back to the
// username. TELEGRAM returns an empty chat id so the transport's default chat
// applies. SMS without a phone number is ErrValidationFailed.
func (u User) Recipient(ch Channel) (string, error) {
	switch ch {
	case ChannelEmail:
		if u.Email != "" {
			return u.Email, nil
		}
	case ChannelSMS:
		if u.Phone == "" {
			return "", fmt.Errorf("%w: user %s has no phone number", ErrValidationFailed, u.Username)
		}
		return u.Phone, nil
	case ChannelTelegram:
		return u.TelegramChatID, nil
	}
	return u.Username, nil
}
