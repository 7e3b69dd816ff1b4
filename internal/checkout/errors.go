package checkout

import "errors"

var (
	ErrInvalidForm        = errors.New("checkout form is incomplete")
	ErrBusy               = errors.New("checkout already in progress")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrFinished           = errors.New("checkout already finished")
	ErrClosed             = errors.New("checkout closed")
	ErrSubmissionRejected = errors.New("submission rejected")
)
