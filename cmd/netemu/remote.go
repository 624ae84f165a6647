package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/cuemby/netemu/pkg/client"
	"github.com/cuemby/netemu/pkg/manager"
	"github.com/cuemby/netemu/pkg/types"
	"github.com/spf13/cobra"
)

func connect(cmd *cobra.Command) (*client.Client, error) {
	addr, _ := cmd.Flags().GetString("manager")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	c, err := client.NewClient(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to manager: %v", err)
	}
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printOutcome(out *types.OperationOutcome) error {
	switch {
	case out.Outcome:
		fmt.Println("✓ done")
	case out.Error != "":
		return fmt.Errorf("operation failed: %s", out.Error)
	default:
		fmt.Println("- not applicable on this host")
	}
	return nil
}

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Inspect a cluster manager",
}

var nodeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a host",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect(cmd)
		if err != nil {
			return err
		}
		defer c.Close()
		status, err := c.GetNodeStatus()
		if err != nil {
			return err
		}
		return printJSON(status)
	},
}

var nodeEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent execution lifecycle events of a host",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		c, err := connect(cmd)
		if err != nil {
			return err
		}
		defer c.Close()
		evs, err := c.Events(limit)
		if err != nil {
			return err
		}
		for _, ev := range evs {
			fmt.Printf("%s  %-20s %s/%d %s\n", ev.Timestamp.Format(time.RFC3339), ev.Type, ev.Emulation, ev.IPFirstOctet, ev.Message)
		}
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run OPERATION EMULATION IP_FIRST_OCTET [CONTAINER_IP]",
	Short: "Run a lifecycle operation on a host",
	Long: `Run a named lifecycle operation, e.g.

  netemu run CreateTopology csle-level9 15
  netemu run StartHostManager csle-level9 15 15.9.2.2

Use "netemu run --list" for every operation.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if list, _ := cmd.Flags().GetBool("list"); list {
			return nil
		}
		return cobra.RangeArgs(3, 4)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if list, _ := cmd.Flags().GetBool("list"); list {
			names := make([]string, 0, len(manager.Routes))
			for name, r := range manager.Routes {
				if r.NodeScoped {
					name += " (node)"
				}
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Println(strings.Join(names, "\n"))
			return nil
		}

		var octet int
		if _, err := fmt.Sscanf(args[2], "%d", &octet); err != nil {
			return fmt.Errorf("invalid ip_first_octet %q", args[2])
		}
		ip := ""
		if len(args) == 4 {
			ip = args[3]
		}

		c, err := connect(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		switch args[0] {
		case "StopExecution":
			out, err := c.StopExecution(args[1], octet)
			if err != nil {
				return err
			}
			return printOutcome(out)
		case "CleanExecution":
			out, err := c.CleanExecution(args[1], octet)
			if err != nil {
				return err
			}
			return printOutcome(out)
		}
		out, err := c.Run(args[0], args[1], octet, ip)
		if err != nil {
			return err
		}
		return printOutcome(out)
	},
}

// info kinds and their aggregation methods
var infoKinds = map[string]func(c *client.Client, emulation string, octet int) (interface{}, error){
	"clients": func(c *client.Client, e string, o int) (interface{}, error) {
		return client.ManagersInfo[types.ClientManagerStatus](c, "GetClientManagersInfo", e, o)
	},
	"traffic": func(c *client.Client, e string, o int) (interface{}, error) {
		return client.ManagersInfo[types.TrafficManagerStatus](c, "GetTrafficManagersInfo", e, o)
	},
	"hosts": func(c *client.Client, e string, o int) (interface{}, error) {
		return client.ManagersInfo[types.HostManagerStatus](c, "GetHostManagersInfo", e, o)
	},
	"snort": func(c *client.Client, e string, o int) (interface{}, error) {
		return client.ManagersInfo[types.IDSManagerStatus](c, "GetSnortIdsManagersInfo", e, o)
	},
	"ossec": func(c *client.Client, e string, o int) (interface{}, error) {
		return client.ManagersInfo[types.IDSManagerStatus](c, "GetOssecIdsManagersInfo", e, o)
	},
	"kafka": func(c *client.Client, e string, o int) (interface{}, error) {
		return client.ManagersInfo[types.KafkaManagerStatus](c, "GetKafkaManagersInfo", e, o)
	},
	"elk": func(c *client.Client, e string, o int) (interface{}, error) {
		return client.ManagersInfo[types.ElkManagerStatus](c, "GetElkManagersInfo", e, o)
	},
	"sdn": func(c *client.Client, e string, o int) (interface{}, error) {
		return client.ManagersInfo[types.SDNControllerStatus](c, "GetSdnControllerInfo", e, o)
	},
	"docker-stats": func(c *client.Client, e string, o int) (interface{}, error) {
		return client.ManagersInfo[types.DockerStatsManagerStatus](c, "GetDockerStatsManagersInfo", e, o)
	},
	"active-clients": func(c *client.Client, e string, o int) (interface{}, error) {
		return c.GetNumActiveClients(e, o)
	},
}

var infoCmd = &cobra.Command{
	Use:   "info KIND EMULATION IP_FIRST_OCTET",
	Short: "Aggregate the sidecar managers of an execution",
	Long: `Query one kind of sidecar manager on every node of an execution.

Kinds: clients, traffic, hosts, snort, ossec, kafka, elk, sdn,
docker-stats, active-clients.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		query, ok := infoKinds[args[0]]
		if !ok {
			return fmt.Errorf("unknown kind %q", args[0])
		}
		var octet int
		if _, err := fmt.Sscanf(args[2], "%d", &octet); err != nil {
			return fmt.Errorf("invalid ip_first_octet %q", args[2])
		}
		c, err := connect(cmd)
		if err != nil {
			return err
		}
		defer c.Close()
		res, err := query(c, args[1], octet)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs (file PATH | docker CONTAINER | service UNIT)",
	Short: "Print the last lines of a log on a host",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		methods := map[string]string{"file": "GetLogs", "docker": "GetDockerLogs", "service": "GetServiceLogs"}
		method, ok := methods[args[0]]
		if !ok {
			return fmt.Errorf("unknown log source %q", args[0])
		}
		c, err := connect(cmd)
		if err != nil {
			return err
		}
		defer c.Close()
		lines, err := c.Logs(method, args[1])
		if err != nil {
			return err
		}
		for _, l := range lines {
			fmt.Println(l)
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{nodeCmd, runCmd, infoCmd, logsCmd} {
		cmd.PersistentFlags().String("manager", "localhost:50041", "Cluster manager address")
		cmd.PersistentFlags().Duration("timeout", 10*time.Minute, "Call timeout")
	}
	runCmd.Flags().Bool("list", false, "List the operations")
	nodeEventsCmd.Flags().Int("limit", 50, "Number of events")
	nodeCmd.AddCommand(nodeStatusCmd, nodeEventsCmd)
}
