// Package logger provides slog handler construction from environment
// configuration and nil-safe attribute helpers for consistent structured
// logging across the platform.
//
// Attribute helpers return an empty slog.Attr for zero values so call sites
// never need explicit nil/empty checks:
//
//	log.Info("certificate issued",
//		logger.Domain(domain),
//		logger.TenantID(tenantID),
//		logger.Error(err), // no-op when err is nil
//	)
package logger
