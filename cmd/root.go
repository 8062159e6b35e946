/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string // Path to configuration file
	version bool   // Print version of the application
)

// rootCmd represents the base command when called without any subcommands.
// The actual work lives in the subcommands (translate, csv, serve, cache,
// glossary); the root only handles shared configuration and --version.
var rootCmd = &cobra.Command{
	Use:   "peretran",
	Short: "Multi-backend translation CLI and adaptive translation service",
	Long: `peretran translates text files using multiple translation backends
(Google Translate, Systran, MyMemory, Ollama, OpenRouter) in parallel, with
optional LLM arbitration and literary refinement, and can also run as a
long-lived HTTP service fronting the same backends adaptively.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if version {
			fmt.Println("peretran v0.1.0")
			return nil
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags are global for the whole application.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.peretran.yaml)")

	rootCmd.Flags().BoolVarP(&version, "version", "v", false, "Print the version of the application")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".peretran" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".peretran")
	}

	viper.AutomaticEnv() // read in environment variables that match

	err := viper.ReadInConfig() // Find and read the config file
	if err == nil {
		// If a config file is found, read it in.
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else { // Handle errors reading the config file
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error if desired
		} else {
			// Config file was found but another error was produced
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

}
