package domain

// TemplateOrigin 模板来源
type TemplateOrigin string

const (
	TemplateOriginTenant  TemplateOrigin = "TENANT"
	TemplateOriginSystem  TemplateOrigin = "SYSTEM"
	TemplateOriginBuiltin TemplateOrigin = "BUILTIN"
)

func (o TemplateOrigin) String() string {
	return string(o)
}

// SystemTenantID 系统默认模板挂在这个租户下
const SystemTenantID int64 = 0

// Template 模板定义，增删改由后台负责，这里只读
type Template struct {
	ID       int64
	TenantID int64
	Event    Event
	Channel  Channel
	Subject  string
	Body     string
	Active   bool
	Ctime    int64
	Utime    int64
}

func (t Template) IsSystem() bool {
	return t.TenantID == SystemTenantID
}

// ResolvedTemplate 解析出来的模板，只在一次发送中使用
type ResolvedTemplate struct {
	Subject    string
	Body       string
	Origin     TemplateOrigin
	TemplateID int64
}
