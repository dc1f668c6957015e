package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"normi13qc/internal/logging"
	"normi13qc/pkg/config"
	"normi13qc/pkg/room"
)

var roomFlags struct {
	configPath string
	action     string
}

var roomCmd = &cobra.Command{
	Use:   "room",
	Short: "Print the room definition resolved for an action",
	RunE:  runRoom,
}

func init() {
	f := roomCmd.Flags()
	f.StringVarP(&roomFlags.configPath, "config", "c", "", "Module configuration file (required)")
	f.StringVarP(&roomFlags.action, "action", "a", "qc_series", "Action whose params are resolved")

	_ = roomCmd.MarkFlagRequired("config")
}

func runRoom(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(roomFlags.configPath)
	if err != nil {
		return err
	}
	action, ok := cfg.Find(roomFlags.action)
	if !ok {
		return fmt.Errorf("action %q not found in %s", roomFlags.action, roomFlags.configPath)
	}

	rc, err := room.NewResolver(logging.New("room")).Resolve(action.Params)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(rc)
}
