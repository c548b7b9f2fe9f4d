package event

type Type string

const (
	ReceiptConfirmedEvent Type = "ReceiptConfirmedEvent"
	ContractDeployedEvent Type = "ContractDeployedEvent"
)
