// Package session manages operator sessions for the admin surface.
//
// A session is created anonymous at first contact, authenticated on sign-in
// (which rotates the token while keeping the session ID), and deleted on
// sign-out or expiry. The Manager validates expiration on every read so
// downstream components can treat "no valid session" uniformly as not
// authorized.
package session
