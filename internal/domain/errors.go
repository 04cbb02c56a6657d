package domain

import "errors"

var (
	ErrNotFound            = errors.New("item not found")
	ErrBadRequest          = errors.New("bad request")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrOutOfStock          = errors.New("item is out of stock")
	ErrPersistence         = errors.New("catalog persistence failed")
	ErrUpdateFailed        = errors.New("stock update failed")
)
