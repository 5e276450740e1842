package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leeforge/captcha/captcha"
)

func newProfilesCmd(opts *loadOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Inspect configured captcha profiles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List profile names",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*opts)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, name := range captcha.NewConfigProfiles(a.source).Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show [name]",
		Short: "Print a profile with defaults applied",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*opts)
			if err != nil {
				return err
			}
			defer a.Close()

			name := a.cfg.Captcha.DefaultProfile
			if len(args) == 1 {
				name = args[0]
			}
			p, err := captcha.NewConfigProfiles(a.source).Profile(name)
			if err != nil {
				return err
			}
			p, err = p.WithDefaults()
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(map[string]captcha.Profile{name: p})
		},
	})
	return cmd
}
