package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lennonwall/backend/internal/events"
	"lennonwall/backend/internal/localization"
	"lennonwall/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func newNotifier(t *testing.T, sender Sender, chatID int64) *TelegramNotifier {
	t.Helper()
	labels, err := localization.Embedded()
	require.NoError(t, err)
	return NewTelegramNotifier(sender, chatID, labels)
}

func hiddenEvent(content string) events.Event {
	return events.Event{
		Type:        events.MessageHidden,
		MessageID:   "m-1",
		Message:     models.Message{ID: "m-1", Content: content, Hidden: true},
		Reason:      models.ReasonHarassment,
		ReportCount: 3,
	}
}

func TestHandle_SendsAlertForHiddenMessage(t *testing.T) {
	// Arrange
	sender := new(MockSender)
	var sent tgbotapi.MessageConfig
	sender.On("Send", mock.AnythingOfType("tgbotapi.MessageConfig")).
		Run(func(args mock.Arguments) { sent = args.Get(0).(tgbotapi.MessageConfig) }).
		Return(tgbotapi.Message{MessageID: 10}, nil).Once()
	n := newNotifier(t, sender, -100500)

	// Act
	err := n.Handle(context.Background(), hiddenEvent("you are all terrible"))

	// Assert
	require.NoError(t, err)
	sender.AssertExpectations(t)
	assert.Equal(t, int64(-100500), sent.ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdown, sent.ParseMode)
	assert.Contains(t, sent.Text, "Reports: 3")
	assert.Contains(t, sent.Text, "Harassment or hate speech")
	assert.Contains(t, sent.Text, "you are all terrible")
}

func TestHandle_IgnoresOtherEvents(t *testing.T) {
	sender := new(MockSender)
	n := newNotifier(t, sender, 1)

	for _, typ := range []events.Type{events.MessageCreated, events.MessageLiked, events.MessageReported} {
		require.NoError(t, n.Handle(context.Background(), events.Event{Type: typ, MessageID: "m"}))
	}

	sender.AssertNotCalled(t, "Send", mock.Anything)
}

func TestHandle_WrapsSendError(t *testing.T) {
	sender := new(MockSender)
	boom := errors.New("telegram unavailable")
	sender.On("Send", mock.Anything).Return(tgbotapi.Message{}, boom)
	n := newNotifier(t, sender, 1)

	err := n.Handle(context.Background(), hiddenEvent("x"))

	assert.ErrorIs(t, err, boom)
}

func TestFormatHiddenAlert_TruncatesAndEscapes(t *testing.T) {
	n := newNotifier(t, new(MockSender), 1)
	long := strings.Repeat("ab", 150)
	text := n.formatHiddenAlert(hiddenEvent(long))
	assert.Contains(t, text, "…")
	assert.NotContains(t, text, long)

	text = n.formatHiddenAlert(hiddenEvent("snake_case *bold*"))
	assert.Contains(t, text, `snake\_case \*bold\*`)
}
