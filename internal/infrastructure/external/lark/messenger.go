package lark

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkIm "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"
)

// Receive id types accepted by the IM API
const (
	ReceiveIDTypeOpenID = "open_id"
	ReceiveIDTypeUserID = "user_id"
	ReceiveIDTypeEmail  = "email"
)

type createMessageFunc func(ctx context.Context, req *larkIm.CreateMessageReq) (*larkIm.CreateMessageResp, error)

// Messenger sends expense notifications as Lark IM messages
type Messenger struct {
	create        createMessageFunc
	receiveIDType string
	logger        *zap.Logger
}

// Config holds Lark app credentials and addressing
type Config struct {
	AppID         string
	AppSecret     string
	ReceiveIDType string
	Timeout       time.Duration
}

// NewMessenger creates a messenger backed by a Lark app with a cached
// tenant token
func NewMessenger(cfg Config, logger *zap.Logger) *Messenger {
	opts := []lark.ClientOptionFunc{
		lark.WithLogLevel(larkcore.LogLevelWarn),
		lark.WithEnableTokenCache(true),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, lark.WithReqTimeout(cfg.Timeout))
	}
	client := lark.NewClient(cfg.AppID, cfg.AppSecret, opts...)

	create := func(ctx context.Context, req *larkIm.CreateMessageReq) (*larkIm.CreateMessageResp, error) {
		return client.Im.Message.Create(ctx, req)
	}
	return newMessenger(create, cfg.ReceiveIDType, logger)
}

func newMessenger(create createMessageFunc, receiveIDType string, logger *zap.Logger) *Messenger {
	if receiveIDType == "" {
		receiveIDType = ReceiveIDTypeUserID
	}
	return &Messenger{
		create:        create,
		receiveIDType: receiveIDType,
		logger:        logger,
	}
}

// SendText sends a plain text message and returns the Lark message id
func (m *Messenger) SendText(ctx context.Context, receiveID, content string) (string, error) {
	if receiveID == "" {
		return "", fmt.Errorf("receiveID cannot be empty")
	}

	if content == "" {
		return "", fmt.Errorf("content cannot be empty")
	}

	body, err := json.Marshal(map[string]string{"text": content})
	if err != nil {
		return "", fmt.Errorf("failed to marshal text content: %w", err)
	}

	return m.send(ctx, receiveID, "text", string(body))
}

// SendCard sends an interactive card message
func (m *Messenger) SendCard(ctx context.Context, receiveID string, card interface{}) (string, error) {
	if receiveID == "" {
		return "", fmt.Errorf("receiveID cannot be empty")
	}

	if card == nil {
		return "", fmt.Errorf("card cannot be nil")
	}

	body, err := json.Marshal(card)
	if err != nil {
		return "", fmt.Errorf("failed to marshal card content: %w", err)
	}

	return m.send(ctx, receiveID, "interactive", string(body))
}

func (m *Messenger) send(ctx context.Context, receiveID, msgType, content string) (string, error) {
	req := larkIm.NewCreateMessageReqBuilder().
		ReceiveIdType(m.receiveIDType).
		Body(larkIm.NewCreateMessageReqBodyBuilder().
			ReceiveId(receiveID).
			MsgType(msgType).
			Content(content).
			Build()).
		Build()

	resp, err := m.create(ctx, req)
	if err != nil {
		m.logger.Error("Failed to send message",
			zap.String("receive_id", receiveID),
			zap.Error(err))
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		m.logger.Error("API returned failure",
			zap.String("receive_id", receiveID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return "", fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}

	m.logger.Info("Message sent successfully",
		zap.String("message_id", messageID),
		zap.String("receive_id", receiveID))

	return messageID, nil
}
