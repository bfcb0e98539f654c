// Package email defines the transactional email contract used across the
// application. Provider implementations live under integration/email; a
// file-based DevSender covers local development.
package email
