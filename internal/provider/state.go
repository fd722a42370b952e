package provider

import (
	"crypto/rand"
	"math/big"
)

// StateSource generates the anti-forgery state values round-tripped through
// the provider redirect. The original client derived these from
// Math.random; unpredictability is what the check relies on, so this source
// draws from crypto/rand instead.
type StateSource struct{}

func (StateSource) State() string {
	const letters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-"
	const n = 32

	ret := make([]byte, n)
	for i := range n {
		num, _ := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		ret[i] = letters[num.Int64()]
	}

	return string(ret)
}
