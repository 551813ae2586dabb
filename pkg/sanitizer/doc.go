// Package sanitizer provides input normalization for circulation data.
//
// All normalization functions are idempotent - applying them multiple times
// produces the same result. Functions handle invalid input gracefully,
// typically by returning empty strings rather than errors.
//
// Normalization includes:
//   - Phone numbers: Convert to E.164 format (+[country][number])
//   - Barcodes: Uppercase, strip whitespace and scanner artifacts
//   - Shelf locations: Canonical dash-separated segments ("3-B-12")
//   - Strings: Collapse whitespace, trim leading/trailing spaces
package sanitizer
