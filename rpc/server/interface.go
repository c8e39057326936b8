package server

import (
	"github.com/ValentinKolb/dCMD/lib/store"
	"github.com/ValentinKolb/dCMD/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response
	// It takes a Message and a store as parameters.
	// It returns a Message as a response, failures are reported as error responses
	// carrying the store.RetCode of the failure.
	Handle(req *common.Message, store store.IStore) (resp *common.Message)
}
