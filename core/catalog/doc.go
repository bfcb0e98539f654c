// Package catalog holds storefront products and cart-to-order submissions.
// Prices use decimal arithmetic; order lines capture the unit price at
// submission time. Completed orders are handed off to the tenant through the
// WhatsApp ordering flow.
package catalog
