package application

import (
	"context"
	"fmt"

	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/ark-network/ark-dice/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// addressRegistry maps the watched addresses to their multiplier tier. It is built once at
// startup and never changes.
type addressRegistry struct {
	byAddress map[string]domain.GameAddress
	sorted    []domain.GameAddress
}

func newAddressRegistry(
	ctx context.Context, wallet ports.WalletService, maxPayout uint64,
) (*addressRegistry, error) {
	addresses, err := wallet.GetGameAddresses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get game addresses: %w", err)
	}
	if len(addresses) <= 0 {
		return nil, fmt.Errorf("wallet has no game addresses")
	}

	registry := &addressRegistry{
		byAddress: make(map[string]domain.GameAddress),
		sorted:    make([]domain.GameAddress, 0, len(addresses)),
	}
	for multiplier, address := range addresses {
		if !multiplier.IsValid() {
			return nil, errInvalidMultiplier{uint64(multiplier)}
		}
		if _, ok := registry.byAddress[address]; ok {
			return nil, fmt.Errorf("address %s is bound to more than one multiplier", address)
		}
		gameAddress, err := domain.NewGameAddress(address, multiplier, maxPayout)
		if err != nil {
			return nil, err
		}
		registry.byAddress[address] = *gameAddress
		registry.sorted = append(registry.sorted, *gameAddress)
	}
	domain.SortGameAddresses(registry.sorted)

	for _, a := range registry.sorted {
		log.Debugf("game address %s: %s, max bet %d sats", a.Multiplier, a.Address, a.MaxBetAmount)
	}
	return registry, nil
}

func (r *addressRegistry) resolve(address string) (domain.GameAddress, error) {
	gameAddress, ok := r.byAddress[address]
	if !ok {
		return domain.GameAddress{}, errUnknownAddress{address}
	}
	return gameAddress, nil
}

func (r *addressRegistry) list() []domain.GameAddress {
	addresses := make([]domain.GameAddress, len(r.sorted))
	copy(addresses, r.sorted)
	return addresses
}
