package store

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("already exists")
	ErrNotPending = errors.New("membership not pending")
	ErrNotMember  = errors.New("not a member")
)
