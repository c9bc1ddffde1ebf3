package domain

import (
	"fmt"
	"sort"

	"github.com/ark-network/ark-dice/pkg/fairness"
)

// Multiplier is the payout multiplier scaled by 100, ie. 150 is 1.5x.
type Multiplier uint64

// Multipliers are the odds tiers the game accepts bets for.
var Multipliers = []Multiplier{
	105, 110, 133, 150, 200, 300, 1000, 2500, 5000, 10000, 100000,
}

func (m Multiplier) String() string {
	return fmt.Sprintf("%d.%02dx", uint64(m)/fairness.MultiplierScale, uint64(m)%fairness.MultiplierScale)
}

func (m Multiplier) IsValid() bool {
	for _, mm := range Multipliers {
		if mm == m {
			return true
		}
	}
	return false
}

// GameAddress is an address bets are sent to, bound to one multiplier.
type GameAddress struct {
	Address        string
	Multiplier     Multiplier
	Target         uint16
	WinProbability float64
	MaxBetAmount   uint64
}

func NewGameAddress(address string, multiplier Multiplier, maxPayout uint64) (*GameAddress, error) {
	if len(address) <= 0 {
		return nil, fmt.Errorf("missing address")
	}
	if multiplier == 0 {
		return nil, fmt.Errorf("invalid multiplier")
	}
	return &GameAddress{
		Address:        address,
		Multiplier:     multiplier,
		Target:         fairness.Target(uint64(multiplier)),
		WinProbability: fairness.WinProbability(uint64(multiplier)),
		MaxBetAmount:   fairness.MaxBet(maxPayout, uint64(multiplier)),
	}, nil
}

// SortGameAddresses orders addresses by ascending multiplier.
func SortGameAddresses(addresses []GameAddress) {
	sort.SliceStable(addresses, func(i, j int) bool {
		return addresses[i].Multiplier < addresses[j].Multiplier
	})
}
