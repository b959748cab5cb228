// Package httpapi exposes the fanvest protocol as a JSON API over chi.
//
// Callers are identified by an HS256 bearer token whose subject is the
// account, or by the X-Fanvest-Account header when no signing secret is
// configured. Rejections are rendered as {"code","message","category","retry"}
// with the HTTP status derived from the error code.
package httpapi
