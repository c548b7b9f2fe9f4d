package chain

// Handler executes a contract method. A returned error aborts the current call
// frame and everything it staged.
type Handler func(ctx *Context, args Args) (interface{}, error)

type Method struct {
	Payable bool
	View    bool
	Handler Handler
}

// Contract is native contract code. Implementations keep no state of their
// own: everything lives in the ledger behind Context, so one value serves
// every deployment of the contract.
type Contract interface {
	Name() string
	Methods() map[string]Method
}

// Constructor is implemented by contracts that initialise storage on deploy.
type Constructor interface {
	Construct(ctx *Context, args Args) error
}

// Receiver is implemented by contracts that accept plain native transfers.
// Contracts without it reject incoming value.
type Receiver interface {
	Receive(ctx *Context) error
}
