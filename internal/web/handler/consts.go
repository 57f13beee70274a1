package handler

const (
	// RootPath is the root path of a route group.
	RootPath = "/"

	// IDPath addresses one record of a route group.
	IDPath = "/:id"

	// ErrNilOptionsFatalLogMsg is used if config, db or models are nil.
	ErrNilOptionsFatalLogMsg = "config, db or models is nil"
)
