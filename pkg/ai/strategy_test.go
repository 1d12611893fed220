package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/chat"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/intent"
)

func TestStrategyTemperatures(t *testing.T) {
	rec := StrategyFor(intent.Recommendation("phone", "3000"))
	price := StrategyFor(intent.PriceComparison("iPhone 15"))
	general := StrategyFor(intent.General())

	assert.Less(t, rec.Temperature, general.Temperature)
	assert.Less(t, price.Temperature, general.Temperature)
	assert.Equal(t, "recommendation", rec.Name)
	assert.Equal(t, "price", price.Name)
	assert.Equal(t, "general", general.Name)

	assert.Contains(t, rec.SystemPrompt, "phone")
	assert.Contains(t, rec.SystemPrompt, "3000")
	assert.Contains(t, price.SystemPrompt, "iPhone 15")
	assert.Equal(t, DefaultMaxTokens, general.MaxTokens)
}

func TestApplyStrategyPrependsOnlyWithoutSystem(t *testing.T) {
	s := StrategyFor(intent.General())
	msgs := []ChatMessage{{Role: chat.RoleUser, Content: "hi"}}

	out := ApplyStrategy(msgs, s)
	require.Len(t, out, 2)
	assert.Equal(t, chat.RoleSystem, out[0].Role)
	assert.Equal(t, s.SystemPrompt, out[0].Content)
	assert.Len(t, msgs, 1, "input must not be modified")

	withSystem := []ChatMessage{{Role: chat.RoleSystem, Content: "custom"}, {Role: chat.RoleUser, Content: "hi"}}
	out = ApplyStrategy(withSystem, s)
	assert.Equal(t, withSystem, out)
}

func TestGatewayErrorMatching(t *testing.T) {
	err := error(NewServiceError(500, "boom", nil))
	assert.ErrorIs(t, err, ErrService)
	assert.NotErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "status 500")

	cfgErr := NewConfigError("missing key")
	assert.False(t, cfgErr.Retryable())
	assert.False(t, NewMalformedResponse("x", nil).Retryable())
	assert.True(t, NewTransportError(nil).Retryable())

	_, ok := KindOf(assert.AnError)
	assert.False(t, ok)
}
