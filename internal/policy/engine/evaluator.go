package engine

import "context"

// AdminRequest is the input of an admin command authorization decision.
type AdminRequest struct {
	Sender  string
	Command string
	Target  string
}

// Authorizer decides whether a sender may run an admin command.
type Authorizer interface {
	// Authorize returns true when the request is allowed.
	Authorize(ctx context.Context, req AdminRequest) (bool, error)
}
