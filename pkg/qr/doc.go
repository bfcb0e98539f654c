// Package qr renders QR code PNG images for storefront and WhatsApp links,
// so store owners can print or embed a code that opens their shop.
package qr
