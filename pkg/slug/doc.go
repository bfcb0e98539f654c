// Package slug generates URL-safe slugs from arbitrary strings with Unicode
// normalization.
//
// It converts text to web-friendly identifiers by normalizing diacritics,
// replacing special characters with separators, and offering length limits and
// collision-resistant suffixes:
//
//	slug.Make("Café & Restaurant")                  // "cafe-restaurant"
//	slug.Make("My Shop", slug.WithSuffix(6))        // "my-shop-k7x2f9"
//	slug.Make("Long title", slug.MaxLength(6))      // "long-t"
//
// IsValid reports whether a string already conforms to the platform slug
// format used in storefront paths.
package slug
