package domain

import "errors"

// ErrNotFound is returned by storage backends when a key holds no snapshot.
var ErrNotFound = errors.New("snapshot not found")

// ErrInvalidKey is returned when a storage key is empty or unsafe for the backend.
var ErrInvalidKey = errors.New("invalid storage key")

// ErrActionNotFound is returned when a path does not resolve to an action.
var ErrActionNotFound = errors.New("action not found")

// ErrReducerFault is recorded by a state machine whose reducer panicked.
var ErrReducerFault = errors.New("reducer fault")

// ErrInvalidNode is returned when a dynamic description cannot become an action node.
var ErrInvalidNode = errors.New("invalid action node")
