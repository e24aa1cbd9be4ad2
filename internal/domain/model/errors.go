package model

import "errors"

var (
	ErrMalformedRow     = errors.New("malformed row")
	ErrConnection       = errors.New("chain connection failed")
	ErrCallConstruction = errors.New("call construction failed")
	ErrIO               = errors.New("file i/o failed")
	ErrGenesisMismatch  = errors.New("genesis hash mismatch")
)
