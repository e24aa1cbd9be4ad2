package substrate

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	accountIDLength = 32
	checksumLength  = 2
)

var ss58Prefix = []byte("SS58PRE")

var ErrInvalidAddress = errors.New("invalid account address")

// DecodeAccountID returns the 32-byte public key of an SS58 address or a
// 0x-prefixed hex public key.
func DecodeAccountID(address string) ([]byte, error) {
	address = strings.TrimSpace(address)
	if strings.HasPrefix(address, "0x") || strings.HasPrefix(address, "0X") {
		raw, err := codec.HexDecodeString(address)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidAddress, address, err)
		}
		if len(raw) != accountIDLength {
			return nil, fmt.Errorf("%w %q: hex key has %d bytes, want %d", ErrInvalidAddress, address, len(raw), accountIDLength)
		}
		return raw, nil
	}

	pub, _, err := DecodeSS58(address)
	if err != nil {
		return nil, err
	}
	return pub, nil
}

// DecodeSS58 decodes an SS58 address carrying a 32-byte account id and
// returns the key with its network prefix.
func DecodeSS58(address string) ([]byte, uint16, error) {
	data, err := base58.Decode(address)
	if err != nil {
		return nil, 0, fmt.Errorf("%w %q: %w", ErrInvalidAddress, address, err)
	}
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("%w %q: empty", ErrInvalidAddress, address)
	}

	var (
		prefix    uint16
		prefixLen int
	)
	switch {
	case data[0] < 64:
		prefix, prefixLen = uint16(data[0]), 1
	case data[0] < 128:
		if len(data) < 2 {
			return nil, 0, fmt.Errorf("%w %q: truncated prefix", ErrInvalidAddress, address)
		}
		lower := (data[0] << 2) | (data[1] >> 6)
		upper := data[1] & 0x3f
		prefix, prefixLen = uint16(lower)|uint16(upper)<<8, 2
	default:
		return nil, 0, fmt.Errorf("%w %q: reserved prefix byte %d", ErrInvalidAddress, address, data[0])
	}

	if len(data) != prefixLen+accountIDLength+checksumLength {
		return nil, 0, fmt.Errorf("%w %q: decoded length %d", ErrInvalidAddress, address, len(data))
	}

	body := data[:len(data)-checksumLength]
	sum := ss58Checksum(body)
	if !bytes.Equal(sum, data[len(data)-checksumLength:]) {
		return nil, 0, fmt.Errorf("%w %q: checksum mismatch", ErrInvalidAddress, address)
	}

	pub := make([]byte, accountIDLength)
	copy(pub, body[prefixLen:])
	return pub, prefix, nil
}

// EncodeSS58 renders a 32-byte public key as an SS58 address for prefix.
func EncodeSS58(pub []byte, prefix uint16) (string, error) {
	if len(pub) != accountIDLength {
		return "", fmt.Errorf("%w: key has %d bytes, want %d", ErrInvalidAddress, len(pub), accountIDLength)
	}
	if prefix > 16383 {
		return "", fmt.Errorf("%w: prefix %d out of range", ErrInvalidAddress, prefix)
	}

	var body []byte
	if prefix < 64 {
		body = append(body, byte(prefix))
	} else {
		first := byte((prefix&0xfc)>>2) | 0x40
		second := byte(prefix>>8) | byte(prefix&0x03)<<6
		body = append(body, first, second)
	}
	body = append(body, pub...)
	body = append(body, ss58Checksum(body)...)
	return base58.Encode(body), nil
}

func ss58Checksum(body []byte) []byte {
	h := blake2b.Sum512(append(append([]byte{}, ss58Prefix...), body...))
	return h[:checksumLength]
}
