package whatsapp

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/hisaab/internal/config"
	client "github.com/mamadbah2/hisaab/pkg/clients/whatsapp"
)

// ErrNoRecipient is returned when neither the request nor the configuration
// names a recipient.
var ErrNoRecipient = errors.New("no whatsapp recipient configured")

// OutboundMessage is a text pushed to a WhatsApp number. An empty To sends
// to the configured owner.
type OutboundMessage struct {
	To         string
	Message    string
	PreviewURL bool
}

// MessagingService pushes owner notifications.
type MessagingService interface {
	SendOutbound(ctx context.Context, msg OutboundMessage) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg    config.WhatsAppConfig
	client client.Client
	logger *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, logger *zap.Logger) *MetaWhatsAppService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetaWhatsAppService{cfg: cfg, client: client, logger: logger.Named("whatsapp")}
}

// SendOutbound delivers msg, defaulting the recipient to the owner.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, msg OutboundMessage) error {
	to := msg.To
	if to == "" {
		to = s.cfg.OwnerID
	}
	if to == "" {
		return ErrNoRecipient
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         to,
		Body:       msg.Message,
		PreviewURL: msg.PreviewURL,
	})
	if err != nil {
		return err
	}
	if len(resp.Messages) > 0 {
		s.logger.Info("whatsapp message sent", zap.String("to", to), zap.String("message_id", resp.Messages[0].ID))
	}
	return nil
}

// LogOnlyService stands in when WhatsApp is not configured; messages are
// written to the log instead.
type LogOnlyService struct {
	logger *zap.Logger
}

// NewLogOnlyService returns a MessagingService that only logs.
func NewLogOnlyService(logger *zap.Logger) *LogOnlyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogOnlyService{logger: logger.Named("whatsapp")}
}

// SendOutbound logs msg.
func (s *LogOnlyService) SendOutbound(_ context.Context, msg OutboundMessage) error {
	s.logger.Info("whatsapp disabled, report not pushed", zap.String("to", msg.To), zap.Int("length", len(msg.Message)))
	return nil
}
