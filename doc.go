package citeroute

// Package citeroute routes a free-form citation/ticket identifier to the
// correct government mailing address across independently maintained
// jurisdictions, and keeps the per-jurisdiction configuration internally
// consistent. It provides:
//
// - A stable error model via Issues (JSON Pointer, code, message)
// - A strict versioned schema for jurisdiction documents (schema/)
// - A normalization/defaulting/validation pipeline for loosely structured
//   input (adapt/)
// - An in-memory, atomically reloadable index for citation matching and
//   address/phone/routing resolution (registry/)
// - Appeal-deadline arithmetic (deadline/) and a validation façade that ties
//   it all together (validate/)
//
// Design policy:
// - Keep only the shared error model in the root package; everything else
//   lives in a focused subpackage.
// - The core performs no network I/O and persists nothing; loading a
//   directory of documents is the only disk access.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	reg := registry.New(registry.WithLogger(logger))
//	if err := reg.Load("configs/"); err != nil { ... }
//	v := validate.New(validate.NewRegistryMatcher(reg), reg)
//	res := v.Validate(ctx, validate.Request{Citation: "TEST123456"})
