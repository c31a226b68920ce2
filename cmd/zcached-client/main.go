// Command zcached-client is a small CLI for talking to a zcached-go server.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	zcached "github.com/zcached/zcached-go"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Error("zcached-client exiting")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var address string

	root := &cobra.Command{
		Use:   "zcached-client",
		Short: "Talk to a zcached-go server",
	}
	root.PersistentFlags().StringVar(&address, "address", "", "server address, e.g. localhost:9876 (required)")

	dial := func() (*zcached.Client, error) {
		if address == "" {
			return nil, zcached.ErrNoAddress
		}
		return zcached.Dial(address)
	}

	root.AddCommand(&cobra.Command{
		Use:   "get KEY",
		Short: "Fetch a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			resp, err := c.Get(args[0])
			if err != nil {
				return err
			}
			if !resp.HasValue {
				fmt.Println("(nil)")
				return nil
			}
			fmt.Println(resp.Value)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			_, err = c.Set(args[0], args[1])
			return err
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "del KEY",
		Short: "Delete a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			_, err = c.Delete(args[0])
			return err
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "flush",
		Short: "Flush the whole store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			_, err = c.Flush()
			return err
		},
	})

	return root
}
