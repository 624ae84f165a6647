/*
Package client is a Go client of the netemu.ClusterManager gRPC service.

	c, err := client.NewClient("10.0.0.1:50041")
	if err != nil {
		return err
	}
	defer c.Close()

	out, err := c.Run("StartTrafficManagers", "csle-level9", 15, "")
	info, err := client.ManagersInfo[types.TrafficManagerStatus](c, "GetTrafficManagersInfo", "csle-level9", 15)

Every call is bounded by the client timeout, ten minutes by default since
execution-wide operations fan out over many nodes.
*/
package client
