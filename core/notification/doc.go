// Package notification composes and sends operator-facing emails for domain
// onboarding milestones. It plugs into the onboarding state machine's stage
// change hook; delivery failures never feed back into the machine.
package notification
