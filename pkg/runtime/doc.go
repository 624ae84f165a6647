/*
Package runtime wraps the local Docker engine for the cluster manager.

DockerRuntime lists, starts, stops and removes the containers of an
execution, manages images and the subnets containers are attached to, bounds
container resources and reads the tail of container logs. It talks to the
engine configured by the environment (DOCKER_HOST) with API version
negotiation.

TailLines and TailFile implement the "last 100 lines" semantics of the log
RPCs: missing files yield an empty list rather than an error.
*/
package runtime
