package application

import "fmt"

type errUnknownAddress struct {
	address string
}

func (e errUnknownAddress) Error() string {
	return fmt.Sprintf("address %s is not a game address", e.address)
}

type errInvalidMultiplier struct {
	multiplier uint64
}

func (e errInvalidMultiplier) Error() string {
	return fmt.Sprintf("invalid multiplier %d", e.multiplier)
}
