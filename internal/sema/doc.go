// Package sema resolves back-references, infers subject types and applies
// the boolean/subject strength reductions on a freshly built rule module.
//
// Analysis is one forward walk over the module in source order. Subjects
// marked referrable are pushed on a module-wide stack; a such_subject binds
// to the most recent entry of its type, directly when the entry dominates
// the reference and through a captured_reference otherwise.
//
// Each top-level rule is analyzed in isolation: a semantic error drops the
// rule, rolls back its stack registrations and analysis continues with the
// next rule unless fail-fast is requested.
package sema
