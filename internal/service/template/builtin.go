package template

import (
	_ "embed"
	"fmt"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gopkg.in/yaml.v2"
)

//go:embed builtin.yaml
var builtinYAML []byte

type builtinEntry struct {
	Subject string `yaml:"subject"`
	Email   string `yaml:"email"`
	Chat    string `yaml:"chat"`
}

// Builtin 内置模板，第三层兜底
type Builtin struct {
	entries map[domain.Event]builtinEntry
}

// LoadBuiltin 解析内置模板，并且检查每个已知事件都有完整的模板
func LoadBuiltin() (*Builtin, error) {
	return parseBuiltin(builtinYAML)
}

func MustLoadBuiltin() *Builtin {
	b, err := LoadBuiltin()
	if err != nil {
		panic(err)
	}
	return b
}

func parseBuiltin(data []byte) (*Builtin, error) {
	raw := make(map[string]builtinEntry)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("解析内置模板失败: %w", err)
	}
	entries := make(map[domain.Event]builtinEntry, len(raw))
	for k, v := range raw {
		entries[domain.Event(k)] = v
	}
	for _, ev := range domain.Events {
		e, ok := entries[ev]
		if !ok || e.Email == "" || e.Chat == "" {
			return nil, fmt.Errorf("事件 %s 缺少内置模板", ev)
		}
	}
	return &Builtin{entries: entries}, nil
}

// Get 邮件使用 HTML 正文，其余渠道使用聊天格式
func (b *Builtin) Get(event domain.Event, ch domain.Channel) (domain.ResolvedTemplate, bool) {
	e, ok := b.entries[event]
	if !ok {
		return domain.ResolvedTemplate{}, false
	}
	body := e.Chat
	if ch == domain.ChannelEmail {
		body = e.Email
	}
	return domain.ResolvedTemplate{
		Subject: e.Subject,
		Body:    body,
		Origin:  domain.TemplateOriginBuiltin,
	}, true
}
