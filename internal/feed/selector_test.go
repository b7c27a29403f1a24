package feed_test

import (
	"fmt"
	"testing"

	"lennonwall/backend/internal/engagement"
	"lennonwall/backend/internal/feed"
	"lennonwall/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) VisiblePage(limit, offset int) ([]models.Message, int) {
	args := m.Called(limit, offset)
	msgs, _ := args.Get(0).([]models.Message)
	return msgs, args.Int(1)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name                  string
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{"defaults when zero", 0, 0, 20, 0},
		{"defaults when negative", -5, 3, 20, 3},
		{"keeps valid values", 10, 40, 10, 40},
		{"caps large limits", 1000, 0, 100, 0},
		{"exact cap", 100, 0, 100, 0},
		{"floors negative offset", 5, -1, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := feed.Normalize(tt.limit, tt.offset)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestPage_PassesNormalisedValues(t *testing.T) {
	// Arrange
	src := new(MockSource)
	msgs := []models.Message{{ID: "m1"}}
	src.On("VisiblePage", 100, 0).Return(msgs, 7).Once()
	sel := feed.NewSelector(src)

	// Act
	page := sel.Page(500, -3)

	// Assert
	assert.Equal(t, msgs, page.Messages)
	assert.Equal(t, 7, page.Total)
	src.AssertExpectations(t)
}

func TestPage_NeverReturnsNilMessages(t *testing.T) {
	src := new(MockSource)
	src.On("VisiblePage", 20, 0).Return(nil, 0)

	page := feed.NewSelector(src).Page(0, 0)

	assert.NotNil(t, page.Messages)
	assert.Empty(t, page.Messages)
}

func TestPage_AgainstStore(t *testing.T) {
	store := engagement.NewStore()
	for i := 0; i < 25; i++ {
		_, err := store.Create(engagement.NewMessage{Content: fmt.Sprintf("note %d", i)})
		require.NoError(t, err)
	}
	sel := feed.NewSelector(store)

	first := sel.Page(0, 0)
	assert.Len(t, first.Messages, 20)
	assert.Equal(t, 25, first.Total)

	rest := sel.Page(20, 20)
	assert.Len(t, rest.Messages, 5)
	assert.Equal(t, 25, rest.Total)

	past := sel.Page(10, 30)
	assert.Empty(t, past.Messages)
	assert.Equal(t, 25, past.Total, "total is independent of the page")
}
