package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sunmonlok/sunmonlok/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadConfig()
		if err != nil {
			return err
		}
		if !res.Loaded {
			fmt.Printf("%s does not exist; defaults are valid\n", res.Path)
			return nil
		}
		fmt.Printf("%s is valid\n", res.Path)
		return nil
	},
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := config.Marshal(res.Config)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configPrintCmd)
}
