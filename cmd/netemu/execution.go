package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cuemby/netemu/pkg/storage"
	"github.com/cuemby/netemu/pkg/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Execution and cluster records are written straight to the metastore the
// managers read from.

func openStore() (storage.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open metastore: %v", err)
	}
	return store, nil
}

func readYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %v", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse YAML: %v", err)
	}
	return nil
}

var executionCmd = &cobra.Command{
	Use:   "execution",
	Short: "Manage executions in the metastore",
}

var executionImportCmd = &cobra.Command{
	Use:   "import -f FILE",
	Short: "Store an execution from a YAML file",
	Long: `Store an execution in the metastore.

Example:
  netemu execution import -f level-9-15.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		var exec types.Execution
		if err := readYAML(file, &exec); err != nil {
			return err
		}
		if exec.EmulationName == "" || exec.IPFirstOctet <= 0 {
			return fmt.Errorf("execution needs emulation_name and ip_first_octet")
		}
		if exec.CreatedAt.IsZero() {
			exec.CreatedAt = time.Now()
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveExecution(&exec); err != nil {
			return fmt.Errorf("failed to save execution: %v", err)
		}
		fmt.Printf("✓ Execution %s stored\n", exec.ID())
		return nil
	},
}

var executionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List executions",
	RunE: func(cmd *cobra.Command, args []string) error {
		emulation, _ := cmd.Flags().GetString("emulation")
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		var execs []*types.Execution
		if emulation != "" {
			execs, err = store.ListExecutionsByEmulation(emulation)
		} else {
			execs, err = store.ListExecutions()
		}
		if err != nil {
			return fmt.Errorf("failed to list executions: %v", err)
		}
		if len(execs) == 0 {
			fmt.Println("No executions found")
			return nil
		}

		fmt.Printf("%-30s %-6s %-8s %s\n", "EMULATION", "OCTET", "RUNNING", "SERVERS")
		for _, e := range execs {
			fmt.Printf("%-30s %-6d %-8t %v\n", e.EmulationName, e.IPFirstOctet, e.Running, e.PhysicalServers)
		}
		return nil
	},
}

var executionRemoveCmd = &cobra.Command{
	Use:   "remove EMULATION IP_FIRST_OCTET",
	Short: "Delete an execution record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		octet, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid ip_first_octet %q", args[1])
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		id := types.ExecutionID{Emulation: args[0], IPFirstOctet: octet}
		if err := store.DeleteExecution(id); err != nil {
			return fmt.Errorf("failed to delete execution: %v", err)
		}
		fmt.Printf("✓ Execution %s removed\n", id)
		return nil
	},
}

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Manage the cluster configuration",
}

var clusterSetCmd = &cobra.Command{
	Use:   "set -f FILE",
	Short: "Store the list of physical servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		var cluster types.ClusterConfig
		if err := readYAML(file, &cluster); err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveClusterConfig(&cluster); err != nil {
			return fmt.Errorf("failed to save cluster config: %v", err)
		}
		fmt.Printf("✓ Cluster config with %d nodes stored\n", len(cluster.Nodes))
		return nil
	},
}

var clusterShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the cluster configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		cluster, err := store.GetClusterConfig()
		if err != nil {
			return err
		}
		return yaml.NewEncoder(os.Stdout).Encode(cluster)
	},
}

func init() {
	executionImportCmd.Flags().StringP("file", "f", "", "YAML file of the execution (required)")
	_ = executionImportCmd.MarkFlagRequired("file")
	executionListCmd.Flags().String("emulation", "", "Only list executions of this emulation")
	executionCmd.AddCommand(executionImportCmd, executionListCmd, executionRemoveCmd)

	clusterSetCmd.Flags().StringP("file", "f", "", "YAML file of the cluster config (required)")
	_ = clusterSetCmd.MarkFlagRequired("file")
	clusterCmd.AddCommand(clusterSetCmd, clusterShowCmd)
}
