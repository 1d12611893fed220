package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/ai"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/botcore"
)

func drain(ch <-chan botcore.Reply) []botcore.Reply {
	var out []botcore.Reply
	for r := range ch {
		out = append(out, r)
	}
	return out
}

func TestTriggerSuccess(t *testing.T) {
	o := New(newSessions(t), &scriptedGateway{})
	got := drain(o.Trigger(context.Background(), botcore.Update{Text: "推荐手机"}))
	require.Len(t, got, 1)
	assert.Equal(t, botcore.ReplyMarkdown, got[0].Kind)
	assert.True(t, got[0].IsFinal)
	assert.Equal(t, "结论：选 A。", got[0].Content)
}

func TestTriggerFailureAddsNetworkHint(t *testing.T) {
	transport := ai.NewTransportError(errors.New("reset"))
	gw := &scriptedGateway{script: []error{transport, transport, transport}}
	o := New(newSessions(t), gw, WithSleeper((&recordingSleeper{}).Sleep))

	got := drain(o.Trigger(context.Background(), botcore.Update{Text: "hello"}))
	require.Len(t, got, 2)
	assert.Equal(t, NetworkHint, got[0].Content)
	assert.Equal(t, botcore.ReplyError, got[1].Kind)
	assert.Equal(t, "网络连接错误，请检查网络后重试", got[1].Content)
}

func TestTriggerInterruptedIsNotReportedAsCancel(t *testing.T) {
	o := New(newSessions(t), &scriptedGateway{}, WithRateLimiter(rate.NewLimiter(1, 0)))
	got := drain(o.Trigger(context.Background(), botcore.Update{Text: "hello"}))
	require.Len(t, got, 1)
	assert.Equal(t, botcore.ReplyError, got[0].Kind)
	assert.NotEqual(t, "已取消发送", got[0].Content)
}

func TestTriggerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := New(newSessions(t), &scriptedGateway{})
	got := drain(o.Trigger(ctx, botcore.Update{Text: "hello"}))
	require.Len(t, got, 1)
	assert.Equal(t, "已取消发送", got[0].Content)
}

func TestTriggerEmpty(t *testing.T) {
	o := New(newSessions(t), &scriptedGateway{})
	got := drain(o.Trigger(context.Background(), botcore.Update{Text: ""}))
	require.Len(t, got, 1)
	assert.Equal(t, botcore.ReplyNotice, got[0].Kind)
}
