package domain

// Event 触发通知的业务事件
type Event string

const (
	EventOSCreated          Event = "OS_CRIADA"
	EventOSAwaitingApproval Event = "OS_AGUARDANDO_APROVACAO"
	EventOSApproved         Event = "OS_APROVADA"
	EventOSInProgress       Event = "OS_EM_ANDAMENTO"
	EventOSAwaitingParts    Event = "OS_AGUARDANDO_PECA"
	EventOSFinished         Event = "OS_FINALIZADA"
	EventOSDelivered        Event = "OS_ENTREGUE"
	EventOSCanceled         Event = "OS_CANCELADA"

	EventPaymentPending   Event = "PAGAMENTO_PENDENTE"
	EventPaymentConfirmed Event = "PAGAMENTO_CONFIRMADO"

	EventMaintenanceReminder Event = "LEMBRETE_MANUTENCAO"
	// EventTest 租户在后台测试渠道配置时使用
	EventTest Event = "TESTE"
)

// Events 所有已知事件，每一个都必须有内置模板
var Events = []Event{
	EventOSCreated,
	EventOSAwaitingApproval,
	EventOSApproved,
	EventOSInProgress,
	EventOSAwaitingParts,
	EventOSFinished,
	EventOSDelivered,
	EventOSCanceled,
	EventPaymentPending,
	EventPaymentConfirmed,
	EventMaintenanceReminder,
	EventTest,
}

func (e Event) String() string {
	return string(e)
}

func (e Event) IsValid() bool {
	for _, ev := range Events {
		if ev == e {
			return true
		}
	}
	return false
}
