package command

import (
	"strings"
)

// ParseResult 承载文本命令解析后的结构化结果。
type ParseResult struct {
	IsCommand   bool     // 是否检测到命令前缀
	Tokens      []string // 解析后的命令及参数 token（包含命令本身）
	Raw         string   // 原始输入文本
	ArgumentRaw string   // 去除命令后的原始参数串
}

// Parser 判定输入是否为斜杠命令并拆分 token。
type Parser struct {
	Prefix string // 命令前缀，默认 "/"
}

// NewParser 创建带默认前缀的解析器。
func NewParser() Parser {
	return Parser{Prefix: "/"}
}

// Parse 将文本拆解为命令 token。
// "/export  ~/chat.txt" -> Tokens ["export", "~/chat.txt"]，ArgumentRaw "~/chat.txt"。
func (p Parser) Parse(text string) ParseResult {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ParseResult{Raw: text}
	}

	prefix := p.Prefix
	if prefix == "" {
		prefix = "/"
	}

	fields := strings.Fields(trimmed)
	first := fields[0]
	if !strings.HasPrefix(first, prefix) || len(first) <= len(prefix) {
		return ParseResult{Raw: text}
	}

	commandToken := strings.ToLower(strings.TrimPrefix(first, prefix))
	tokens := make([]string, 0, len(fields))
	tokens = append(tokens, commandToken)
	tokens = append(tokens, fields[1:]...)

	return ParseResult{
		IsCommand:   true,
		Tokens:      tokens,
		Raw:         text,
		ArgumentRaw: strings.TrimSpace(strings.TrimPrefix(trimmed, first)),
	}
}

// ParseCommand 与 Parse 相同，但在输入不含命令关键字时返回 ErrCommandRequired。
func (p Parser) ParseCommand(text string) (ParseResult, error) {
	res := p.Parse(text)
	if !res.IsCommand {
		return res, ErrCommandRequired
	}
	return res, nil
}
