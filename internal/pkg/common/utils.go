package common

import (
	"github.com/google/uuid"
)

// GenerateUUID generates a UUID
func GenerateUUID() string {
	return uuid.New().String()
}
