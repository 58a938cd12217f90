package usecase

// Export for testing
var (
	UniqueReferenceID  = uniqueReferenceID
	MaxPersistAttempts = maxPersistAttempts
)
