package services

import (
	"context"
	"fmt"
	"log"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/twilio/twilio-go/twiml"

	"gramcare-backend/config"
	"gramcare-backend/models"
	"gramcare-backend/utils"
)

// SMSService sends SMS through Twilio and renders TwiML webhook replies.
type SMSService struct {
	client             *twilio.RestClient
	fromNumber         string
	defaultCountryCode string
	enabled            bool
}

func NewSMSService(cfg config.SMSConfig, defaultCountryCode string) *SMSService {
	s := &SMSService{
		fromNumber:         cfg.FromNumber,
		defaultCountryCode: defaultCountryCode,
		enabled:            cfg.TwilioConfigured(),
	}
	if s.enabled {
		s.client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		})
	} else {
		log.Println("[SMSService] Twilio credentials missing, outbound SMS disabled")
	}
	return s
}

func (s *SMSService) Enabled() bool {
	return s.enabled
}

// SendTextMessage sends one SMS. The Twilio client has no context support, so ctx is only
// checked before the call.
func (s *SMSService) SendTextMessage(ctx context.Context, to, body string) error {
	if !s.enabled {
		return external("twilio", ErrNotConfigured)
	}
	if err := ctx.Err(); err != nil {
		return external("twilio", err)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(utils.E164(to, s.defaultCountryCode))
	params.SetFrom(s.fromNumber)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return external("twilio", fmt.Errorf("failed to send SMS: %w", err))
	}
	if resp.Sid != nil {
		log.Printf("[SMSService.SendTextMessage] sent %s", *resp.Sid)
	}
	return nil
}

// SendPayload sends every segment of a reply as a separate SMS, in order.
func (s *SMSService) SendPayload(ctx context.Context, to string, payload *models.ChannelPayload) (int, error) {
	segments := payload.Segments
	if len(segments) == 0 {
		segments = utils.SplitSegments(payload.Response, utils.MaxSegmentLength)
	}
	for i, segment := range segments {
		if err := s.SendTextMessage(ctx, to, segment); err != nil {
			return i, fmt.Errorf("segment %d of %d: %w", i+1, len(segments), err)
		}
	}
	return len(segments), nil
}

// TwiMLReply renders one <Message> per segment for a Twilio webhook response.
func TwiMLReply(segments []string) (string, error) {
	verbs := make([]twiml.Element, 0, len(segments))
	for _, segment := range segments {
		verbs = append(verbs, &twiml.MessagingMessage{Body: segment})
	}
	xml, err := twiml.Messages(verbs)
	if err != nil {
		return "", fmt.Errorf("failed to render TwiML: %w", err)
	}
	return xml, nil
}
