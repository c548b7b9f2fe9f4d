package entity

import (
	"fmt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gosimple/slug"
	"github.com/holiman/uint256"
)

const (
	ReceiptStatusFailed     uint64 = 0
	ReceiptStatusSuccessful uint64 = 1
)

// CallMsg is a contract invocation. Args hold Go values (common.Address,
// *uint256.Int, uint64, bool, string); over the wire they travel as strings.
type CallMsg struct {
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Value  *uint256.Int   `json:"value,omitempty"`
	Method string         `json:"method"`
	Args   []interface{}  `json:"args"`
}

type Receipt struct {
	TxHash          common.Hash    `json:"transactionHash"`
	BlockNumber     uint64         `json:"blockNumber"`
	From            common.Address `json:"from"`
	To              common.Address `json:"to"`
	ContractAddress common.Address `json:"contractAddress"`
	Method          string         `json:"method"`
	Value           *uint256.Int   `json:"value,omitempty"`
	Status          uint64         `json:"status"`
	RevertReason    string         `json:"revertReason,omitempty"`
	Logs            []EventLog     `json:"logs"`
}

type EventLog struct {
	EventName string         `json:"_eventname"`
	Address   common.Address `json:"address"`
	Params    Params         `json:"params"`
}

func (r Receipt) Slug() string {
	return CreateReceiptSlug(r.TxHash)
}

func CreateReceiptSlug(hash common.Hash) string {
	return slug.Make(fmt.Sprintf("tx-%s", hash.Hex()))
}

func (r Receipt) Succeeded() bool {
	return r.Status == ReceiptStatusSuccessful
}

func (r Receipt) GetEventLogs(eventName string) []EventLog {
	eventLogs := make([]EventLog, 0)
	for _, event := range r.Logs {
		if event.EventName == eventName {
			eventLogs = append(eventLogs, event)
		}
	}
	return eventLogs
}

func (r Receipt) HasEventLog(eventName string) bool {
	for _, event := range r.Logs {
		if event.EventName == eventName {
			return true
		}
	}
	return false
}

func (r Receipt) GetEventLogForAddr(addr common.Address, eventName string) (EventLog, error) {
	for _, event := range r.Logs {
		if event.Address == addr && event.EventName == eventName {
			return event, nil
		}
	}
	return EventLog{}, fmt.Errorf("event %s for address %s does not exist", eventName, addr.Hex())
}
