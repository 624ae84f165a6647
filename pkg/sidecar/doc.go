// Package sidecar provides clients for the per-node sidecar managers
// (traffic, client population, host, IDS, Kafka, Elk, docker stats and SDN
// controller). Every call is bounded by the connector's timeout.
package sidecar
