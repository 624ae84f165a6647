/*
Package provision installs the static state of emulated containers: user
accounts, vulnerabilities, flags and resource limits.

Users, vulnerabilities and flags are installed over the admin SSH session
of each container. Resource limits are applied through the Docker API for
CPU and memory and through a netem qdisc in the container's network
namespace for delay, jitter, loss, corruption, duplication and rate.
*/
package provision
