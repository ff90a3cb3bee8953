package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stefan-ffr/mueller/internal/vcard"
)

func newShowCmd(c *cli) *cobra.Command {
	var (
		country string
		forQR   bool
	)
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a person's vCard to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.loader.LoadPerson(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			country = strings.ToLower(strings.TrimSpace(country))
			body := vcard.Generate(p, country, false)
			if forQR {
				body = vcard.GenerateForQR(p, country)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), body)
			return err
		},
	}
	cmd.Flags().StringVar(&country, "country", "", "only include this country (ch, th)")
	cmd.Flags().BoolVar(&forQR, "qr", false, "print the compact variant encoded in QR codes")
	return cmd
}
