package memory

import "github.com/secmon-lab/oprisk/pkg/domain/interfaces"

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = interfaces.ErrNotFound
