/*
Package events records the lifecycle changes a cluster manager makes to
executions on its host.

The manager publishes an Event whenever an execution is marked running or
stopped, cleaned from the host, or when a dispatched operation completes or
fails. The Broker keeps a bounded history that ListEvents serves, and
delivers each event to live subscribers without blocking the publisher:

	broker := events.NewBroker(events.DefaultHistory)
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	for ev := range sub {
		fmt.Println(ev.Type, ev.Emulation, ev.IPFirstOctet)
	}

A subscriber whose buffer is full misses events; the history still holds
them.
*/
package events
