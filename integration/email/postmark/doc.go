// Package postmark implements the email.EmailSender interface on top of the
// Postmark transactional email API.
package postmark
