// Package sanitizer normalizes user input before validation and storage.
//
// Every function is idempotent. Invalid input yields an empty string rather
// than an error; the validators then report the field as missing.
//
// Normalization includes:
//   - Phone numbers: E.164, parsed with Indonesia as the default region
//   - KTP numbers: digits only
//   - ISBNs: digits plus a trailing X, hyphens and spaces removed
//   - Free text: whitespace collapsed and trimmed
//   - Categories: lowercase with single underscores between words
//   - URLs: https scheme, lowercase host, tracking parameters dropped
package sanitizer
