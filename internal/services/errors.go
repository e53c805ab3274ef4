package services

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrNoOpenRaffle        = errors.New("no open raffle")
	ErrRaffleClosed        = errors.New("raffle is closed")
	ErrRaffleAlreadyOpen   = errors.New("another raffle is already open")
	ErrVoucherNotPending   = errors.New("voucher is not pending")
	ErrBelowMinimumDeposit = errors.New("amount is below the minimum deposit")
	ErrInvalidRaffleConfig = errors.New("invalid raffle configuration")
	ErrCouponCodeTaken     = errors.New("coupon code already exists")
)
