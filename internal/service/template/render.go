package template

import (
	"html"
	"regexp"
	"slices"

	"gitee.com/flycash/workshop-notification/internal/domain"
)

// tokenPattern 匹配 {{key}} 和 {key}，花括号内允许空白
var tokenPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}|\{\s*([A-Za-z0-9_.\-]+)\s*\}`)

// Render 替换主题和正文里的变量，没有提供的变量原样保留。
// 邮件正文是 HTML，变量值要先转义；主题是纯文本，不转义
func Render(tmpl domain.ResolvedTemplate, ch domain.Channel, variables map[string]string) (subject, body string) {
	subject = RenderString(tmpl.Subject, variables)
	if ch == domain.ChannelEmail {
		return subject, renderString(tmpl.Body, variables, html.EscapeString)
	}
	return subject, RenderString(tmpl.Body, variables)
}

func RenderString(src string, variables map[string]string) string {
	return renderString(src, variables, nil)
}

func renderString(src string, variables map[string]string, escape func(string) string) string {
	if src == "" {
		return ""
	}
	return tokenPattern.ReplaceAllStringFunc(src, func(token string) string {
		v, ok := variables[tokenName(token)]
		if !ok {
			return token
		}
		if escape != nil {
			return escape(v)
		}
		return v
	})
}

// UnresolvedTokens 渲染之后仍然残留的变量名，按出现顺序去重
func UnresolvedTokens(rendered string) []string {
	var res []string
	for _, m := range tokenPattern.FindAllStringSubmatch(rendered, -1) {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		if !slices.Contains(res, name) {
			res = append(res, name)
		}
	}
	return res
}

func tokenName(token string) string {
	m := tokenPattern.FindStringSubmatch(token)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}
