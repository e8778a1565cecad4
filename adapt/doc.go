// Package adapt turns loosely structured, hand-authored jurisdiction
// documents into schema-compliant ones. The pipeline runs six stages, each
// total and side-effect-free on its input:
//
//  1. name normalization: legacy key spellings rewritten to canonical names
//  2. field transformation: per-field shape repair (bare-string addresses,
//     boolean phone policies, legacy authority records, ...)
//  3. default injection: structural and optional defaults
//  4. validation: the schema invariants, collected without short-circuiting
//  5. auto-fix (lenient only): deterministic repair per violation
//  6. finalization: cosmetic cleanup and section back-fill
//
// In strict mode any invariant violation after stage 4 is a hard failure and
// no document is returned. In lenient mode a violation the auto-fixer repairs
// becomes a warning; one it cannot repair stays an error and fails the
// result. Adapting an already compliant document changes nothing but
// cosmetics, and adapting twice yields byte-identical output.
package adapt
