package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func check(e error) {
	if e != nil {
		fmt.Printf("%v\n", e.Error())
		os.Exit(1)
	}
}

var configFile string

var rootCmd = &cobra.Command{
	Use:     "lettermail",
	Short:   "Lettermail is a webmail service with per-participant email deletion",
	Long:    `Lettermail is a webmail service where sender and recipient each control their own copy of an email. A message is only purged from storage once both sides have deleted it.`,
	Version: "0.1.0",
	Run: func(cmd *cobra.Command, args []string) {
		// empty
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "conf.yaml", "configuration file path")
}

func main() {
	Execute()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
