// Package types defines the public error taxonomy and option structs shared
// by the vhdx decoder and the inspect facade.
//
// Every decode failure is reported as a *Error whose Kind names one of the
// stable categories (signature, checksum, bounds, redundancy, ...). The
// underlying cause stays reachable through errors.Unwrap, so errors.Is
// against the internal sentinels keeps working inside this module.
package types
