// internal/app/configcmd.go
package app

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [flags]",
		Short: "Print the effective configuration as YAML",
		Long: `Merges defaults, the --config file, SEQFILE_* environment variables and
the given flags, validates the result and prints it. The output can be
used as a --config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, closeLog, err := e.load(cmd)
			if err != nil {
				return err
			}
			defer closeLog()
			enc := yaml.NewEncoder(e.stdout)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	addRecordFlags(cmd.Flags())
	return cmd
}
