/*
Package services manages the sidecar manager processes that run inside the
emulated containers.

A sidecar is a small gRPC server (traffic_manager, host_manager,
kafka_manager and so on) started over SSH through the container's
docker_gwbridge address. Launcher makes starting one idempotent: it probes
the process table first, kills any stale instance, launches the binary
detached with nohup and waits a settle delay so the sidecar can bind its
port before the first RPC.

Controller builds on Launcher and the typed sidecar clients to implement
the lifecycle of the monitoring and infrastructure services of an
execution: host monitors and beats, Snort and OSSEC IDSes, Kafka, Elk, the
SDN controller and the docker stats monitor. Every operation only touches
containers owned by the local physical host.
*/
package services
