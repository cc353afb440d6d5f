package utils

import "github.com/google/uuid"

// UUIDGenerator issues time-ordered identifiers for records created on the
// server when the submitting device did not assign one.
type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
