// Package dns verifies custom-domain DNS configuration against the platform
// ingress address. It distinguishes domains that point elsewhere (the owner
// has not updated their records yet) from domains that do not resolve at all.
package dns
