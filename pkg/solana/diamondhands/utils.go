package diamondhands_program

import (
	"github.com/mr-tron/base58"
)

const discriminatorSize = 8

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
