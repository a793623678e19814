package diamondhands

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	diamondhands_program "github.com/code-payments/diamondhands/pkg/solana/diamondhands"
)

// DeriveRecordAddress returns the lock record address for an owner and mint,
// along with its bump seed. At most one record exists per pair.
func (s *Session) DeriveRecordAddress(owner, mint ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	if err := validateSeedKeys(owner, mint); err != nil {
		return nil, 0, err
	}

	address, nonce, err := diamondhands_program.GetRecordAddress(&diamondhands_program.GetRecordAddressArgs{
		Program: s.program,
		Owner:   owner,
		Mint:    mint,
	})
	if err != nil {
		return nil, 0, errors.Wrapf(ErrDerivationFailure, "record for owner %s: %v", base58.Encode(owner), err)
	}
	return address, nonce, nil
}

// DeriveVaultAuthority returns the address that owns a record's vault. It
// depends only on the record address.
func (s *Session) DeriveVaultAuthority(record ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	if err := validateSeedKeys(record); err != nil {
		return nil, 0, err
	}

	address, nonce, err := diamondhands_program.GetGatekeeperAddress(&diamondhands_program.GetGatekeeperAddressArgs{
		Program: s.program,
		Record:  record,
	})
	if err != nil {
		return nil, 0, errors.Wrapf(ErrDerivationFailure, "vault authority for record %s: %v", base58.Encode(record), err)
	}
	return address, nonce, nil
}

func validateSeedKeys(keys ...ed25519.PublicKey) error {
	for _, key := range keys {
		if len(key) != ed25519.PublicKeySize {
			return errors.Wrapf(ErrDerivationFailure, "invalid seed key length: %d", len(key))
		}
	}
	return nil
}
