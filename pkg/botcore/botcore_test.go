package botcore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func replyWith(content string) PipelineFunc {
	return func(context.Context, Update) <-chan Reply {
		ch := make(chan Reply, 1)
		ch <- Reply{Content: content, IsFinal: true}
		close(ch)
		return ch
	}
}

func collect(ch <-chan Reply) []Reply {
	var out []Reply
	for r := range ch {
		out = append(out, r)
	}
	return out
}

func TestChainRoutesSlashCommands(t *testing.T) {
	chain := NewChain(replyWith("assistant"))
	chain.AddRoute("command", MatchPrefix("/"), replyWith("command"))

	got := collect(chain.Trigger(context.Background(), Update{Text: "/history"}))
	require.Len(t, got, 1)
	assert.Equal(t, "command", got[0].Content)

	got = collect(chain.Trigger(context.Background(), Update{Text: "推荐手机"}))
	require.Len(t, got, 1)
	assert.Equal(t, "assistant", got[0].Content)
}

func TestChainWithoutDefaultIsSilent(t *testing.T) {
	chain := NewChain(nil)
	assert.Empty(t, collect(chain.Trigger(context.Background(), Update{Text: "hi"})))
}

func TestLineAdapterAndDrain(t *testing.T) {
	u, err := LineAdapter("repl").Normalize("  hello \n")
	require.NoError(t, err)
	assert.Equal(t, "hello", u.Text)
	assert.Equal(t, "repl", u.Source)
	assert.NotEmpty(t, u.ID)

	var seen []string
	err = Drain(u, replyWith("done").Trigger(context.Background(), u), EmitterFunc(func(_ Update, r Reply) error {
		seen = append(seen, r.Content)
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"done"}, seen)
}

func TestCloneMetadata(t *testing.T) {
	u := Update{Metadata: map[string]string{"lang": "zh"}}
	clone := u.CloneMetadata()
	clone["lang"] = "en"
	assert.Equal(t, "zh", u.Metadata["lang"])
	assert.Nil(t, Update{}.CloneMetadata())
}
