package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrStoreLoading        = errors.New("profiles are still loading")
	ErrSubmissionPending   = errors.New("a submission is already in progress")
	ErrMissingCredentials  = errors.New("Please enter both email and password")
	ErrInvalidCredentials  = errors.New("Invalid login credentials")
	ErrEmailTaken          = errors.New("User already registered")
	ErrConfirmationPending = errors.New("Registration successful. Please check your email to confirm.")
)
