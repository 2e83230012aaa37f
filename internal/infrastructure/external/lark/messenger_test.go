package lark

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkIm "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedMessage struct {
	receiveID string
	msgType   string
	content   string
}

func recordingCreate(resp *larkIm.CreateMessageResp, err error, out *[]recordedMessage) createMessageFunc {
	return func(ctx context.Context, req *larkIm.CreateMessageReq) (*larkIm.CreateMessageResp, error) {
		*out = append(*out, recordedMessage{
			receiveID: *req.Body.ReceiveId,
			msgType:   *req.Body.MsgType,
			content:   *req.Body.Content,
		})
		return resp, err
	}
}

func okResponse(messageID string) *larkIm.CreateMessageResp {
	return &larkIm.CreateMessageResp{
		CodeError: larkcore.CodeError{Code: 0},
		Data:      &larkIm.CreateMessageRespData{MessageId: larkcore.StringPtr(messageID)},
	}
}

func TestMessenger_SendText(t *testing.T) {
	var sent []recordedMessage
	m := newMessenger(recordingCreate(okResponse("om_123"), nil, &sent), "", zap.NewNop())

	id, err := m.SendText(context.Background(), "ou_manager", "Expense \"pending\"\nplease review")

	require.NoError(t, err)
	assert.Equal(t, "om_123", id)
	require.Len(t, sent, 1)
	assert.Equal(t, ReceiveIDTypeUserID, m.receiveIDType)
	assert.Equal(t, "ou_manager", sent[0].receiveID)
	assert.Equal(t, "text", sent[0].msgType)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(sent[0].content), &body))
	assert.Equal(t, "Expense \"pending\"\nplease review", body["text"])
}

func TestMessenger_SendCard(t *testing.T) {
	var sent []recordedMessage
	m := newMessenger(recordingCreate(okResponse("om_9"), nil, &sent), ReceiveIDTypeEmail, zap.NewNop())

	_, err := m.SendCard(context.Background(), "mgr@example.com", map[string]interface{}{"header": "Expense approved"})

	require.NoError(t, err)
	assert.Equal(t, ReceiveIDTypeEmail, m.receiveIDType)
	assert.Equal(t, "interactive", sent[0].msgType)
	assert.JSONEq(t, `{"header": "Expense approved"}`, sent[0].content)
}

func TestMessenger_Errors(t *testing.T) {
	var sent []recordedMessage

	t.Run("empty receiver", func(t *testing.T) {
		m := newMessenger(recordingCreate(okResponse("x"), nil, &sent), "", zap.NewNop())
		_, err := m.SendText(context.Background(), "", "hello")
		assert.Error(t, err)
	})

	t.Run("empty content", func(t *testing.T) {
		m := newMessenger(recordingCreate(okResponse("x"), nil, &sent), "", zap.NewNop())
		_, err := m.SendText(context.Background(), "ou_1", "")
		assert.Error(t, err)
	})

	t.Run("transport error", func(t *testing.T) {
		m := newMessenger(recordingCreate(nil, errors.New("connection reset"), &sent), "", zap.NewNop())
		_, err := m.SendText(context.Background(), "ou_1", "hello")
		assert.ErrorContains(t, err, "connection reset")
	})

	t.Run("api failure", func(t *testing.T) {
		resp := &larkIm.CreateMessageResp{CodeError: larkcore.CodeError{Code: 230002, Msg: "bot not in chat"}}
		m := newMessenger(recordingCreate(resp, nil, &sent), "", zap.NewNop())
		_, err := m.SendText(context.Background(), "ou_1", "hello")
		assert.ErrorContains(t, err, "code=230002")
	})
}
