// Package verifier wraps the external fact-checking service's three HTTP
// operations (submit, status, result) with typed requests and responses.
package verifier
