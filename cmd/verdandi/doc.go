// Command verdandi is the CLI for the idea validation pipeline. It discovers
// and deduplicates product ideas, runs experiments through the staged
// pipeline, and manages reviews and topic reservations against the shared
// SQLite store.
package main
