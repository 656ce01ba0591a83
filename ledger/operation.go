package ledger

import "fmt"

// Operation identifies the kind of request flowing through the Ledger
type Operation int16

const (
	OpBalance Operation = iota
	OpDeposit
	OpWithdraw
	OpList
)

func (op Operation) String() string {
	switch op {
	case OpBalance:
		return "Balance"

	case OpDeposit:
		return "Deposit"

	case OpWithdraw:
		return "Withdraw"

	case OpList:
		return "List"

	default:
		return fmt.Sprintf("UnknownOperation(%d)", op)
	}
}
