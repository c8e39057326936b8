package cluster

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/dCMD/lib/store"
	"github.com/ValentinKolb/dCMD/rpc/common"
)

// TransportError is the failure of a submitted request: it could not be sent,
// the response could not be read, or the node answered with an error.
// Code is the store return code of the node (RetCInternalError for everything
// that happened before the node could answer).
type TransportError struct {
	Op   common.MessageType
	Code store.RetCode
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed (code %s): %v", e.Op, e.Code, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HasCode reports whether err is a *TransportError with the given code
func HasCode(err error, code store.RetCode) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Code == code
}
