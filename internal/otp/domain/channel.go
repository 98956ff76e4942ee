package domain

import "strings"

type Channel string

const (
	ChannelEmail    Channel = "EMAIL"
	ChannelSMS      Channel = "SMS"
	ChannelTelegram Channel = "TELEGRAM"
	ChannelFile     Channel = "FILE"
)

var Channels = []Channel{ChannelEmail, ChannelSMS, ChannelTelegram, ChannelFile}

// ParseChannel matches case-insensitively and rejects unknown names.
func ParseChannel(s string) (Channel, bool) {
	c := Channel(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Channels {
		if c == known {
			return c, true
		}
	}
	return "", false
}
