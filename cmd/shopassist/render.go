package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/botcore"
)

// renderer 把回复片段写到终端，助手回答按 Markdown 渲染。
type renderer struct {
	out io.Writer
	md  *glamour.TermRenderer
}

func newRenderer(out io.Writer) *renderer {
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		md = nil
	}
	return &renderer{out: out, md: md}
}

// Emit 实现 botcore.Emitter。
func (r *renderer) Emit(_ botcore.Update, reply botcore.Reply) error {
	if reply.Content == "" {
		return nil
	}
	var err error
	switch reply.Kind {
	case botcore.ReplyMarkdown:
		_, err = fmt.Fprint(r.out, r.markdown(reply.Content))
	case botcore.ReplyNotice:
		_, err = fmt.Fprintln(r.out, "ℹ "+reply.Content)
	case botcore.ReplyError:
		_, err = fmt.Fprintln(r.out, "✖ "+reply.Content)
	default:
		_, err = fmt.Fprint(r.out, reply.Content)
	}
	return err
}

func (r *renderer) markdown(content string) string {
	if r.md != nil {
		if rendered, err := r.md.Render(content); err == nil {
			return rendered
		}
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content
}
