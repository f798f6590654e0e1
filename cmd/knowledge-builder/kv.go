package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var kvCmd = &cobra.Command{
	Use:   "kv",
	Short: "Inspects and edits the runtime key/value store backing {key} config placeholders",
}

var kvGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Prints the value for one key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Kv == nil {
			return fmt.Errorf("key/value store is unavailable")
		}

		value, err := a.Kv.Get(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	},
}

var kvSetDescription string

var kvSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Stores or updates a key/value pair",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Kv == nil {
			return fmt.Errorf("key/value store is unavailable")
		}

		return a.Kv.Set(context.Background(), args[0], args[1], kvSetDescription)
	},
}

var kvDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Removes a key/value pair",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Kv == nil {
			return fmt.Errorf("key/value store is unavailable")
		}

		return a.Kv.Delete(context.Background(), args[0])
	},
}

var kvListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists every stored key/value pair",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Kv == nil {
			return fmt.Errorf("key/value store is unavailable")
		}

		pairs, err := a.Kv.List(context.Background())
		if err != nil {
			return err
		}
		for _, pair := range pairs {
			fmt.Printf("%s = %s\t%s\n", pair.Key, pair.Value, pair.Description)
		}
		return nil
	},
}

func init() {
	kvSetCmd.Flags().StringVar(&kvSetDescription, "description", "", "human-readable description of this key")
	kvCmd.AddCommand(kvGetCmd, kvSetCmd, kvDeleteCmd, kvListCmd)
}
