package drawing

import (
	crand "crypto/rand"
	"errors"
	"math/big"
)

var (
	ErrNoEntrants   = errors.New("no entrants in round")
	errInvalidRange = errors.New("invalid random range")
)

var drawRandomInt = secureRandomInt

// pickWinner chooses one entrant uniformly at random from a closed-round
// snapshot.
func pickWinner(entrants []string) (string, error) {
	if len(entrants) == 0 {
		return "", ErrNoEntrants
	}

	idx, err := drawRandomInt(len(entrants))
	if err != nil {
		return "", err
	}
	return entrants[idx], nil
}

func secureRandomInt(max int) (int, error) {
	if max <= 0 {
		return 0, errInvalidRange
	}

	n, err := crand.Int(crand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
