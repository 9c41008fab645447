package pathfinder

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Execute builds the command tree and runs it against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand returns the pathfinder command tree. Every tree owns its own
// viper instance so commands can be run more than once in a process.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "pathfinder <source> <target> <max_hops>",
		Short: "Pathfinder: relation paths over a knowledge graph",
		Long: `Pathfinder explores a remote knowledge graph concurrently, starting from a
source entity, and reports the chain of relations that leads to a target
entity within a hop budget.

Entities can be given as full URIs or as bare names such as Albert_Einstein,
which are expanded with the configured resource prefix.`,
		Example: `  pathfinder Albert_Einstein Germany 2
  pathfinder find http://dbpedia.org/resource/Ulm Germany 1 --output json
  pathfinder server --port 8080`,
		Args: validateFindArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, v, cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, v, args)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pathfinder.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.String("backend", "sparql", "knowledge backend (sparql, neo4j, memory)")
	flags.String("endpoint", "", "SPARQL endpoint URL")
	flags.String("triples-file", "", "YAML triples file for the memory backend")
	flags.Int("workers", 0, "core exploration workers")
	flags.Duration("timeout", 0, "overall exploration timeout (0 disables)")
	flags.Duration("politeness-delay", 0, "minimum delay between knowledge-base requests")

	bindFlags(v, flags, map[string]string{
		"log.level":                  "log-level",
		"log.format":                 "log-format",
		"knowledge.backend":          "backend",
		"knowledge.endpoint":         "endpoint",
		"knowledge.triples_file":     "triples-file",
		"explore.core_workers":       "workers",
		"explore.timeout":            "timeout",
		"knowledge.politeness_delay": "politeness-delay",
	})

	addOutputFlag(rootCmd)
	rootCmd.AddCommand(newFindCommand(v))
	rootCmd.AddCommand(newServerCommand(v))

	return rootCmd
}

// bindFlags binds flags to viper keys. Only flags the user changed take
// precedence over the config file and environment.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
}

// initConfig reads in the config file and environment variables.
func initConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		// Use config file from the flag.
		v.SetConfigFile(cfgFile)
	} else {
		// Search config in home directory and cwd with name ".pathfinder" (without extension).
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".pathfinder")
	}

	v.SetEnvPrefix("PATHFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		return nil
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", v.ConfigFileUsed())
	return nil
}
