package usecase

import "fmt"

// ErrPersistence indicates an infrastructure/repository failure inside a use
// case. Presentation maps it to a generic transient-failure signal; the
// wrapped cause is for the logs, never for the client.
var ErrPersistence = fmt.Errorf("chat use case persistence error")
