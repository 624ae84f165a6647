// Package ovs creates bridges and attaches SDN controllers inside the Open
// vSwitch containers of an execution, for the switches owned by this host.
package ovs
