// Package whatsapp builds click-to-chat links and order notification messages
// for the WhatsApp-based ordering flow.
//
// The platform does not talk to a WhatsApp gateway directly; storefront orders
// are handed off as pre-filled wa.me links that open a conversation with the
// store's number:
//
//	link, err := whatsapp.Link("+55 (11) 98765-4321", "Hello!")
//	// https://wa.me/5511987654321?text=Hello%21
package whatsapp
