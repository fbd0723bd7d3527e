package net

import (
	"encoding/binary"
	"errors"
	"math"
	"time"

	"gungnir/internal/common"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort    = errors.New("message too short")
)

type MessageType int

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
	ModifyOrder
	LogBook
)

type ReportMessageType int

const (
	OutcomeReport ReportMessageType = iota
	ExecutionReport
	CancelReport
	ModifyReport
	ErrorReport
)

type Message interface {
	GetType() MessageType
}

// Message format constants
const (
	BaseMessageHeaderLen        = 2
	NewOrderMessageHeaderLen    = 2 + 8 + 8 + 8 + 1 + 1
	CancelOrderMessageHeaderLen = 8
	ModifyOrderMessageHeaderLen = 8 + 8 + 8
)

// Generic message type.
type BaseMessage struct {
	TypeOf MessageType // 2 bytes
}

func (m BaseMessage) GetType() MessageType {
	return m.TypeOf
}

func parseMessage(msg []byte) (Message, error) {
	if len(msg) < BaseMessageHeaderLen {
		return BaseMessage{}, errors.New("message too short to contain header")
	}

	typeOf := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	msg = msg[2:]
	switch typeOf {
	case Heartbeat, LogBook:
		return BaseMessage{TypeOf: typeOf}, nil
	case NewOrder:
		return parseNewOrder(msg)
	case CancelOrder:
		return parseCancelOrder(msg)
	case ModifyOrder:
		return parseModifyOrder(msg)
	default:
		return BaseMessage{}, ErrInvalidMessageType
	}
}

type NewOrderMessage struct {
	BaseMessage
	OrderType   common.OrderType // 2 bytes
	OrderID     common.OrderID   // 8 bytes
	LimitPrice  common.Price     // 8 bytes
	Volume      common.Volume    // 8 bytes
	Side        common.Side      // 1 byte
	UsernameLen uint8            // 1 byte
	Username    string           // n bytes
}

// Order converts the wire message into the engine's order record. Volume
// validation is left to the engine's pre-flight check.
func (o *NewOrderMessage) Order() common.Order {
	order := common.NewOrder(o.OrderType, o.OrderID, o.LimitPrice, o.Side, o.Volume)
	order.Owner = o.Username
	return order
}

func parseNewOrder(msg []byte) (NewOrderMessage, error) {
	if len(msg) < NewOrderMessageHeaderLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}

	m := NewOrderMessage{BaseMessage: BaseMessage{TypeOf: NewOrder}}
	m.OrderType = common.OrderType(binary.BigEndian.Uint16(msg[0:2]))
	m.OrderID = common.OrderID(binary.BigEndian.Uint64(msg[2:10]))
	m.LimitPrice = common.Price(math.Float64frombits(binary.BigEndian.Uint64(msg[10:18])))
	m.Volume = common.Volume(math.Float64frombits(binary.BigEndian.Uint64(msg[18:26])))
	m.Side = common.Side(msg[26])
	m.UsernameLen = uint8(msg[27])

	if len(msg) < NewOrderMessageHeaderLen+int(m.UsernameLen) {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	m.Username = string(msg[28 : 28+m.UsernameLen])

	return m, nil
}

type CancelOrderMessage struct {
	BaseMessage
	OrderID common.OrderID // 8 bytes
}

func parseCancelOrder(msg []byte) (CancelOrderMessage, error) {
	if len(msg) < CancelOrderMessageHeaderLen {
		return CancelOrderMessage{}, ErrMessageTooShort
	}

	m := CancelOrderMessage{BaseMessage: BaseMessage{TypeOf: CancelOrder}}
	m.OrderID = common.OrderID(binary.BigEndian.Uint64(msg[0:8]))
	return m, nil
}

type ModifyOrderMessage struct {
	BaseMessage
	OrderID   common.OrderID // 8 bytes
	NewPrice  common.Price   // 8 bytes
	NewVolume common.Volume  // 8 bytes
}

func parseModifyOrder(msg []byte) (ModifyOrderMessage, error) {
	if len(msg) < ModifyOrderMessageHeaderLen {
		return ModifyOrderMessage{}, ErrMessageTooShort
	}

	m := ModifyOrderMessage{BaseMessage: BaseMessage{TypeOf: ModifyOrder}}
	m.OrderID = common.OrderID(binary.BigEndian.Uint64(msg[0:8]))
	m.NewPrice = common.Price(math.Float64frombits(binary.BigEndian.Uint64(msg[8:16])))
	m.NewVolume = common.Volume(math.Float64frombits(binary.BigEndian.Uint64(msg[16:24])))
	return m, nil
}

type Report struct {
	MessageType     ReportMessageType // 1 byte
	Outcome         common.Outcome    // 1 byte
	Success         uint8             // 1 byte
	Side            common.Side       // 1 byte
	Timestamp       uint64            // 8 bytes
	OrderID         uint64            // 8 bytes
	Volume          float64           // 8 bytes
	Price           float64           // 8 bytes
	CounterpartyLen uint16            // 2 bytes
	ErrStrLen       uint32            // 4 bytes
	Err             string            // n bytes
	Counterparty    string            // n bytes
}

const ReportFixedHeaderLen = 1 + 1 + 1 + 1 + 8 + 8 + 8 + 8 + 2 + 4

// Serialize converts the report to be sent on the wire.
func (r *Report) Serialize() []byte {
	buf := make([]byte, ReportFixedHeaderLen+len(r.Err)+len(r.Counterparty))
	buf[0] = byte(r.MessageType)
	buf[1] = byte(r.Outcome)
	buf[2] = r.Success
	buf[3] = byte(r.Side)
	binary.BigEndian.PutUint64(buf[4:12], r.Timestamp)
	binary.BigEndian.PutUint64(buf[12:20], r.OrderID)
	binary.BigEndian.PutUint64(buf[20:28], math.Float64bits(r.Volume))
	binary.BigEndian.PutUint64(buf[28:36], math.Float64bits(r.Price))
	binary.BigEndian.PutUint16(buf[36:38], r.CounterpartyLen)
	binary.BigEndian.PutUint32(buf[38:42], r.ErrStrLen)

	offset := ReportFixedHeaderLen
	copy(buf[offset:], r.Err)
	offset += len(r.Err)
	copy(buf[offset:], r.Counterparty)
	return buf
}

// generateWireOutcomeReport acks a submission back to its sender with the
// terminal outcome.
func generateWireOutcomeReport(order common.Order, outcome common.Outcome) []byte {
	report := Report{
		MessageType: OutcomeReport,
		Outcome:     outcome,
		Side:        order.Side,
		Timestamp:   uint64(time.Now().UnixNano()),
		OrderID:     uint64(order.ID),
		Volume:      float64(order.InitialVolume),
		Price:       float64(order.LimitPrice),
	}
	return report.Serialize()
}

// generateWireAckReport acks a cancel or modify request.
func generateWireAckReport(typeOf ReportMessageType, id common.OrderID, ok bool) []byte {
	report := Report{
		MessageType: typeOf,
		Timestamp:   uint64(time.Now().UnixNano()),
		OrderID:     uint64(id),
	}
	if ok {
		report.Success = 1
	}
	return report.Serialize()
}

// generateWireTradeReports generates both trade reports, each addressed to
// the respective counterparty.
func generateWireTradeReports(trade common.Trade, err error) ([]byte, []byte) {
	errStr := ""
	if err != nil {
		errStr = err.Error()
	}

	createReport := func(party, counterParty *common.Order) Report {
		return Report{
			MessageType:     ExecutionReport,
			Side:            party.Side,
			Timestamp:       uint64(trade.Timestamp.UnixNano()),
			OrderID:         uint64(party.ID),
			Volume:          float64(trade.MatchVol),
			Price:           float64(trade.Price),
			CounterpartyLen: uint16(len(counterParty.Owner)),
			ErrStrLen:       uint32(len(errStr)),
			Err:             errStr,
			Counterparty:    counterParty.Owner,
		}
	}

	taker := createReport(trade.Taker, trade.Maker)
	maker := createReport(trade.Maker, trade.Taker)
	return taker.Serialize(), maker.Serialize()
}

func generateWireErrorReport(err error) []byte {
	errStr := err.Error()
	report := Report{
		MessageType: ErrorReport,
		Timestamp:   uint64(time.Now().UnixNano()),
		ErrStrLen:   uint32(len(errStr)),
		Err:         errStr,
	}
	return report.Serialize()
}
