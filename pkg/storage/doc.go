/*
Package storage implements the metastore: the authoritative record of every
execution (keyed by emulation name and ip_first_octet) and of the static
cluster configuration.

Two backends implement Store:

  - BoltStore keeps everything in <data_dir>/netemu.db (bbolt, one JSON value
    per key in the "executions" and "cluster" buckets). Suitable for a single
    physical host or tests.
  - RedisStore keeps the same JSON values in a shared Redis server so that the
    managers on every physical host see the same executions.

The manager never caches executions; every RPC reads the execution again.
Lookups of missing keys return an error wrapping ErrNotFound.
*/
package storage
