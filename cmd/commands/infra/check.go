package infra

import (
	"github.com/spf13/cobra"
)

func CheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run the Ansible syntax check",
		Long: `Run "ansible-playbook playbooks/site.yml --syntax-check".

Example:
  atl infra check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.manager.SyntaxCheck(s.context(cmd.Context())); err != nil {
				return failed(s.log, "syntax check", err)
			}
			return nil
		},
		SilenceUsage: true,
	}
}
