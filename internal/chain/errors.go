package chain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownContract  = errors.New("unknown contract")
	ErrReceiptNotFound  = errors.New("receipt not found")
	ErrTransferRejected = errors.New("recipient rejected native transfer")
	ErrZeroSender       = errors.New("sender cannot be the zero address")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// RevertError is a failed execution. Reason is what a contract reverted with,
// e.g. "NftMarketplace__PriceNotMet()".
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	return "execution reverted: " + e.Reason
}

func Revert(reason string) error {
	return &RevertError{Reason: reason}
}

func Revertf(format string, a ...interface{}) error {
	return &RevertError{Reason: fmt.Sprintf(format, a...)}
}

// RevertReason extracts the revert reason from err, including reasons carried
// only in the message of an error that crossed a process boundary.
func RevertReason(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var revert *RevertError
	if errors.As(err, &revert) {
		return revert.Reason, true
	}

	const prefix = "execution reverted: "
	if idx := strings.Index(err.Error(), prefix); idx >= 0 {
		return err.Error()[idx+len(prefix):], true
	}

	return "", false
}

func IsRevert(err error) bool {
	_, ok := RevertReason(err)
	return ok
}

// IsRevertWith reports whether err reverted with exactly reason.
func IsRevertWith(err error, reason string) bool {
	got, ok := RevertReason(err)
	return ok && got == reason
}

func asRevert(err error) error {
	if err == nil {
		return nil
	}
	var revert *RevertError
	if errors.As(err, &revert) {
		return revert
	}

	return &RevertError{Reason: err.Error()}
}
