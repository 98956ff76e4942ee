package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/pinpoint"
	"github.com/aws/aws-sdk-go-v2/service/pinpoint/types"
)

type SMSConfig struct {
	ApplicationID    string `koanf:"application_id"`
	AccessKey        string `koanf:"access_key"`
	SecretKey        string `koanf:"secret_key"`
	Region           string `koanf:"region"`
	SenderID         string `koanf:"sender_id"`
	MessageType      string `koanf:"message_type"` // TRANSACTIONAL or PROMOTIONAL
	EntityID         string `koanf:"entity_id"`
	TemplateID       string `koanf:"template_id"`
	DefaultPhoneCode string `koanf:"default_phone_code"`
}

type pinpointAPI interface {
	SendMessages(ctx context.Context, in *pinpoint.SendMessagesInput, optFns ...func(*pinpoint.Options)) (*pinpoint.SendMessagesOutput, error)
}

// SMS sends codes through AWS Pinpoint.
type SMS struct {
	cfg SMSConfig
	api pinpointAPI
	tpl *Templates
}

func NewSMS(ctx context.Context, cfg SMSConfig, tpl *Templates) (*SMS, error) {
	switch {
	case cfg.ApplicationID == "":
		return nil, errors.New("notify: sms application_id is required")
	case cfg.Region == "":
		return nil, errors.New("notify: sms region is required")
	case cfg.AccessKey == "" || cfg.SecretKey == "":
		return nil, errors.New("notify: sms access_key and secret_key are required")
	}

	if cfg.MessageType == "" {
		cfg.MessageType = string(types.MessageTypeTransactional)
	}
	if cfg.MessageType != string(types.MessageTypeTransactional) && cfg.MessageType != string(types.MessageTypePromotional) {
		return nil, fmt.Errorf("notify: sms message_type must be TRANSACTIONAL or PROMOTIONAL, got %q", cfg.MessageType)
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, err
	}
	return newSMS(cfg, pinpoint.NewFromConfig(awsCfg), tpl), nil
}

func newSMS(cfg SMSConfig, api pinpointAPI, tpl *Templates) *SMS {
	if tpl == nil {
		tpl = MustDefaultTemplates()
	}
	return &SMS{cfg: cfg, api: api, tpl: tpl}
}

func (s *SMS) Deliver(ctx context.Context, to, code string) error {
	msg, err := s.tpl.Render(TemplateData{Code: code, Recipient: to, Channel: "SMS"})
	if err != nil {
		return err
	}

	addr := s.sanitizePhone(to)
	sms := &types.SMSMessage{
		Body:        aws.String(msg.Body),
		MessageType: types.MessageType(s.cfg.MessageType),
	}
	if s.cfg.SenderID != "" {
		sms.SenderId = aws.String(s.cfg.SenderID)
	}
	if s.cfg.EntityID != "" {
		sms.EntityId = aws.String(s.cfg.EntityID)
	}
	if s.cfg.TemplateID != "" {
		sms.TemplateId = aws.String(s.cfg.TemplateID)
	}

	out, err := s.api.SendMessages(ctx, &pinpoint.SendMessagesInput{
		ApplicationId: aws.String(s.cfg.ApplicationID),
		MessageRequest: &types.MessageRequest{
			Addresses: map[string]types.AddressConfiguration{
				addr: {ChannelType: types.ChannelTypeSms},
			},
			MessageConfiguration: &types.DirectMessageConfiguration{SMSMessage: sms},
		},
	})
	if err != nil {
		return err
	}

	if out == nil || out.MessageResponse == nil {
		return errors.New("notify: empty pinpoint response")
	}
	res, ok := out.MessageResponse.Result[addr]
	if !ok {
		return fmt.Errorf("notify: no pinpoint result for %s", addr)
	}
	if res.DeliveryStatus != types.DeliveryStatusSuccessful {
		return fmt.Errorf("notify: pinpoint delivery %s: %s", res.DeliveryStatus, aws.ToString(res.StatusMessage))
	}
	return nil
}

// sanitizePhone turns local numbers into E.164 using the default country
// code. "+" numbers pass through and a "00" prefix becomes "+".
func (s *SMS) sanitizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	switch {
	case strings.HasPrefix(phone, "+"):
		return phone
	case strings.HasPrefix(phone, "00"):
		return "+" + phone[2:]
	}
	return s.cfg.DefaultPhoneCode + phone
}
