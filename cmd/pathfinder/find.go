package pathfinder

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/soundprediction/pathfinder"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newFindCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find <source> <target> <max_hops>",
		Short: "Find a relation path between two entities",
		Long: `Find explores outgoing relations from the source entity until it reaches the
target entity or runs out of entities within max_hops.

A path is printed as its relation sequence, for example:

  [http://dbpedia.org/ontology/birthPlace, http://dbpedia.org/ontology/country]

When no path exists within the budget the command prints "no path found" and
exits successfully.`,
		Args: validateFindArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, v, args)
		},
	}
	addOutputFlag(cmd)
	return cmd
}

// validateFindArgs checks <source> <target> <max_hops>.
func validateFindArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(3)(cmd, args); err != nil {
		return err
	}
	hops, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("max_hops must be an integer, got %q", args[2])
	}
	if hops < 1 {
		return fmt.Errorf("%w: got %d", pathfinder.ErrInvalidHopBudget, hops)
	}
	return nil
}

func runFind(cmd *cobra.Command, v *viper.Viper, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	maxHops, _ := strconv.Atoi(args[2])

	// Arguments are valid; later failures are not usage errors.
	cmd.SilenceUsage = true

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	logger, closeLogger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLogger()

	client, err := pathfinder.NewFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize pathfinder: %w", err)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := client.FindPath(ctx, pathfinder.Request{
		Source:  args[0],
		Target:  args[1],
		MaxHops: maxHops,
	})
	if err != nil {
		return err
	}

	return writeResult(cmd.OutOrStdout(), format, res)
}
