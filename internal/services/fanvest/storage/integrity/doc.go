// Package integrity seals and verifies the event journal.
//
// Each appended event gets a content hash, a chain hash linking it to the
// previous event of the same instance, and an HMAC signature over the chain
// hash. Signing keys are derived per instance from a root key with HKDF so a
// leaked derived key does not expose other instances.
package integrity
