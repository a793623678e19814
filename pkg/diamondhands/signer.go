package diamondhands

import (
	"crypto/ed25519"

	"github.com/code-payments/diamondhands/pkg/solana"
)

// Signer authorizes transactions. The first signer of a transaction pays its
// fees.
type Signer interface {
	PublicKey() ed25519.PublicKey
	Sign(txn *solana.Transaction) error
}

type keypairSigner struct {
	key ed25519.PrivateKey
}

// NewKeypairSigner returns a Signer backed by an in process private key.
func NewKeypairSigner(key ed25519.PrivateKey) Signer {
	return &keypairSigner{key: key}
}

func (s *keypairSigner) PublicKey() ed25519.PublicKey {
	return s.key.Public().(ed25519.PublicKey)
}

func (s *keypairSigner) Sign(txn *solana.Transaction) error {
	return txn.Sign(s.key)
}
