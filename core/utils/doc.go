// Package utils converts loosely typed values decoded from vendor JSON.
//
// Payloads are decoded with json.Decoder.UseNumber, so numbers arrive as
// json.Number; these helpers accept that alongside the usual Go scalars and
// never fail, returning the zero value instead.
package utils
