package models

import "errors"

// Store-level sentinel errors. Repositories translate driver errors into
// these so services can branch without importing the mongo driver.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)
