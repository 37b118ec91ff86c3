package domain

import "errors"

var (
	// ErrNoGoldenPath means a phase that needs a golden path was run
	// before discovery produced one.
	ErrNoGoldenPath = errors.New("no golden path loaded, run discover first")

	// ErrNoTestPlan means run-test-plan was pointed at a missing plan file.
	ErrNoTestPlan = errors.New("test plan not found")

	// ErrNoAccounts means the accounts file was empty or missing.
	ErrNoAccounts = errors.New("no accounts configured")
)
