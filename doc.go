/*
Package tinyhttp provides a minimal HTTP/1.x server library.

Tinyhttp focuses on correct response serialization:

  - Identity and chunked transfer codings, negotiated from the request's
    protocol version, the client's quality-valued TE preferences and the
    declared body length.
  - Header mutation policy: fields owned by the serializer (Connection,
    Transfer-Encoding, Upgrade and friends) cannot be set by handlers.
  - Body suppression for 1xx, 204 and 304 responses and for HEAD requests.
  - Protocol upgrades: a 101 response hands the raw connection back to the
    handler for protocol-specific framing (see examples/websockets).

The server itself is intentionally small: one goroutine per accepted
connection, one request per connection, no TLS, no routing.
*/
package tinyhttp
