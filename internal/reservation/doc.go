// Package reservation coordinates topic claims between workers that share a
// single SQLite database. A claim gives one worker exclusive rights to a
// topic key until it releases the claim or lets the TTL lapse. The package
// also answers similarity queries over prior claims, using the vector memory
// service when reachable and local scans otherwise.
package reservation
