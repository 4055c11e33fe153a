package template

import (
	"testing"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRenderString(t *testing.T) {
	t.Parallel()

	vars := map[string]string{
		"nomeCliente": "Ana",
		"numeroOS":    "1042",
		"vazio":       "",
	}
	testCases := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "双花括号",
			src:  "Olá {{nomeCliente}}, OS {{numeroOS}}",
			want: "Olá Ana, OS 1042",
		},
		{
			name: "单花括号",
			src:  "Olá {nomeCliente}",
			want: "Olá Ana",
		},
		{
			name: "花括号内有空白",
			src:  "OS {{ numeroOS }}",
			want: "OS 1042",
		},
		{
			name: "没有提供的变量原样保留",
			src:  "Placa {{placa}} / {veiculo}",
			want: "Placa {{placa}} / {veiculo}",
		},
		{
			name: "空值也是提供了",
			src:  "[{{vazio}}]",
			want: "[]",
		},
		{
			name: "没有变量",
			src:  "texto puro",
			want: "texto puro",
		},
		{
			name: "空模板",
			src:  "",
			want: "",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, RenderString(tc.src, vars))
		})
	}
}

func TestRender(t *testing.T) {
	t.Parallel()
	tmpl := domain.ResolvedTemplate{
		Subject: "OS {{numeroOS}} - {{nomeCliente}}",
		Body:    "<p>{{nomeCliente}}</p>",
	}
	testCases := []struct {
		name        string
		ch          domain.Channel
		variables   map[string]string
		wantSubject string
		wantBody    string
	}{
		{
			name:        "普通变量",
			ch:          domain.ChannelEmail,
			variables:   map[string]string{"numeroOS": "7", "nomeCliente": "Bia"},
			wantSubject: "OS 7 - Bia",
			wantBody:    "<p>Bia</p>",
		},
		{
			name:        "邮件正文转义变量值",
			ch:          domain.ChannelEmail,
			variables:   map[string]string{"numeroOS": "7", "nomeCliente": `<script>alert("x")</script> & Cia`},
			wantSubject: `OS 7 - <script>alert("x")</script> & Cia`,
			wantBody:    "<p>&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt; &amp; Cia</p>",
		},
		{
			name:        "其他渠道不转义",
			ch:          domain.ChannelWhatsApp,
			variables:   map[string]string{"numeroOS": "7", "nomeCliente": "Bia & <Cia>"},
			wantSubject: "OS 7 - Bia & <Cia>",
			wantBody:    "<p>Bia & <Cia></p>",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			subject, body := Render(tmpl, tc.ch, tc.variables)
			assert.Equal(t, tc.wantSubject, subject)
			assert.Equal(t, tc.wantBody, body)
		})
	}
}

func TestUnresolvedTokens(t *testing.T) {
	t.Parallel()
	got := UnresolvedTokens("{{a}} {b} {{ a }} texto {c}")
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Empty(t, UnresolvedTokens("nada aqui"))
}
