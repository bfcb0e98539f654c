// Package onboarding drives a tenant's custom domain from unconfigured to
// active-with-TLS.
//
// The state machine owns the stages
//
//	Unconfigured → DNSPending → DNSVerified → CertPending → Active
//
// with Failed reachable from DNSPending and CertPending and retryable via
// Start, and Removed as the operator-initiated terminal stage. DNS
// verification and certificate issuance are external collaborators consumed
// through the DomainVerifier and CertificateProvisioner interfaces; the
// machine orchestrates checks, owns the certificate polling cadence, and
// guarantees that a cancelled attempt's in-flight responses are never applied
// to state.
//
// Transient collaborator failures (transport errors) never fail an attempt on
// their own; only explicit error payloads do. The transition table is total:
// events arriving in a stage that does not accept them are reported as
// ignored outcomes rather than errors.
package onboarding
