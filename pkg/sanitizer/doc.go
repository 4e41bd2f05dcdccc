// Package sanitizer normalizes user input before validation and storage.
//
// All functions are idempotent and never fail: input that cannot be normalized
// comes back empty so the validator rejects it with a field error.
//
// Normalization includes:
//   - Phone numbers: E.164, national numbers read as Belgian, Dutch or French
//   - Strings: collapse whitespace, trim leading/trailing spaces
//   - Emails: trimmed and lowercased
//   - Languages: lowercase two-letter codes
//   - Slices: remove duplicates and empty values after normalization
package sanitizer
