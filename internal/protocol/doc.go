// Package protocol frames binary chunks and control tokens as printable
// JSON text suitable for a single-slot clipboard channel.
//
// Three record kinds share the channel and are distinguished by a type
// tag: data packets carrying one base64 chunk, short acknowledgement
// tokens, and a best-effort finish token. Decoders reject foreign
// clipboard content with sentinel errors the engines treat as "not for
// us" rather than failures.
package protocol
