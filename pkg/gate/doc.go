/*
Package gate holds the serving gate: the lock-free boolean signal the
request-handling front door consults before accepting a connection or
answering a readiness probe.

The gate has exactly one writer, the reconciliation loop, and arbitrarily
many readers. Reads go through an atomic pointer swap, so they never
contend with each other or with the writer. The only externally observable
effect of anything that happens inside Holdfast is this signal flipping.
*/
package gate
