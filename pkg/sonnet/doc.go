/*
Package sonnet generates short pseudo-poetic text from a two-level probabilistic
model: a per-state word distribution and a state-independent word transition
table, walked as a finite-state process driven by an emission table until the
terminal state is reached.

Resources are loaded once into an immutable Tables value, either from the
original tab-separated and JSON files, from a JSON snapshot, or from a SQLite
database. A Generator built on top of Tables is safe for concurrent use; each
call takes its own random source so seeded runs are reproducible.
*/
package sonnet
