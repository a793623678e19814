package diamondhands_program

import (
	"bytes"
	"crypto/ed25519"
	"strconv"
	"time"

	"github.com/mr-tron/base58"

	"github.com/code-payments/diamondhands/pkg/solana/binary"
)

const DiamondHandsAccountSize = (8 + // discriminator
	32 + // owner
	32 + // diamondhands_account
	1 + // diamondhands_nonce
	32 + // gatekeeper
	1 + // nonce
	32 + // vault
	1 + // thawed
	8) // date_to_unfreeze

var diamondHandsAccountDiscriminator = []byte{253, 230, 3, 230, 133, 22, 19, 147}

type DiamondHandsAccount struct {
	Owner             ed25519.PublicKey
	DiamondHands      ed25519.PublicKey
	DiamondHandsNonce uint8
	Gatekeeper        ed25519.PublicKey
	Nonce             uint8
	Vault             ed25519.PublicKey
	Thawed            bool
	DateToUnfreeze    uint64
}

func (obj *DiamondHandsAccount) Clone() *DiamondHandsAccount {
	cloned := *obj
	cloned.Owner = cloneKey(obj.Owner)
	cloned.DiamondHands = cloneKey(obj.DiamondHands)
	cloned.Gatekeeper = cloneKey(obj.Gatekeeper)
	cloned.Vault = cloneKey(obj.Vault)
	return &cloned
}

func (obj *DiamondHandsAccount) String() string {
	return "DiamondHandsAccount{" +
		"owner='" + encodeKey(obj.Owner) + "'" +
		", diamondhands_account='" + encodeKey(obj.DiamondHands) + "'" +
		", diamondhands_nonce='" + strconv.Itoa(int(obj.DiamondHandsNonce)) + "'" +
		", gatekeeper='" + encodeKey(obj.Gatekeeper) + "'" +
		", nonce='" + strconv.Itoa(int(obj.Nonce)) + "'" +
		", vault='" + encodeKey(obj.Vault) + "'" +
		", thawed='" + strconv.FormatBool(obj.Thawed) + "'" +
		", date_to_unfreeze='" + time.Unix(int64(obj.DateToUnfreeze), 0).UTC().String() + "'" +
		"}"
}

func (obj *DiamondHandsAccount) Marshal() []byte {
	data := make([]byte, DiamondHandsAccountSize)

	var offset int

	binary.PutBytes(data, diamondHandsAccountDiscriminator, &offset)

	binary.PutKey32(data, obj.Owner, &offset)
	binary.PutKey32(data, obj.DiamondHands, &offset)
	binary.PutUint8(data, obj.DiamondHandsNonce, &offset)
	binary.PutKey32(data, obj.Gatekeeper, &offset)
	binary.PutUint8(data, obj.Nonce, &offset)
	binary.PutKey32(data, obj.Vault, &offset)
	binary.PutBool(data, obj.Thawed, &offset)
	binary.PutUint64(data, obj.DateToUnfreeze, &offset)

	return data
}

func (obj *DiamondHandsAccount) Unmarshal(data []byte) error {
	if len(data) != DiamondHandsAccountSize {
		return ErrInvalidAccountData
	}

	var offset int
	var discriminator []byte

	binary.GetBytes(data, &discriminator, discriminatorSize, &offset)
	if !bytes.Equal(discriminator, diamondHandsAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	binary.GetKey32(data, &obj.Owner, &offset)
	binary.GetKey32(data, &obj.DiamondHands, &offset)
	binary.GetUint8(data, &obj.DiamondHandsNonce, &offset)
	binary.GetKey32(data, &obj.Gatekeeper, &offset)
	binary.GetUint8(data, &obj.Nonce, &offset)
	binary.GetKey32(data, &obj.Vault, &offset)
	if !binary.GetBool(data, &obj.Thawed, &offset) {
		return ErrInvalidAccountData
	}
	binary.GetUint64(data, &obj.DateToUnfreeze, &offset)

	return nil
}

func cloneKey(key ed25519.PublicKey) ed25519.PublicKey {
	if key == nil {
		return nil
	}
	return append(ed25519.PublicKey{}, key...)
}

func encodeKey(key ed25519.PublicKey) string {
	if key == nil {
		return ""
	}
	return base58.Encode(key)
}

// AccountDiscriminator returns the 8 byte prefix of a DiamondHandsAccount.
func AccountDiscriminator() []byte {
	return append([]byte{}, diamondHandsAccountDiscriminator...)
}
