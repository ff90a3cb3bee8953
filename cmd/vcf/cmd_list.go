package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/stefan-ffr/mueller/internal/directory"
	"github.com/stefan-ffr/mueller/internal/format"
)

func newListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List family members in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			people, err := c.selectPeople(cmd.Context(), nil)
			if err != nil {
				return err
			}
			return writeTable(cmd.OutOrStdout(), people)
		},
	}
}

var listHeader = []string{"ID", "NAME", "COUNTRIES", "PHONE", "ADDRESS", "EMAIL"}

// writeTable prints one row per person. Columns are padded by display width
// so flags and Thai names line up.
func writeTable(w io.Writer, people []*directory.Person) error {
	rows := [][]string{listHeader}
	for _, p := range people {
		rows = append(rows, listRow(p))
	}

	widths := make([]int, len(listHeader))
	for _, row := range rows {
		for i, cell := range row {
			if n := runewidth.StringWidth(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var sb strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			if i == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
			sb.WriteString("  ")
		}
		sb.WriteString("\n")
	}
	_, err := fmt.Fprint(w, sb.String())
	return err
}

// listRow shows the first phone, address and email found across the person's countries.
func listRow(p *directory.Person) []string {
	codes := make([]string, 0, len(p.Countries))
	var phone, address, email string
	for _, c := range p.Countries {
		codes = append(codes, c.Flag+" "+strings.ToUpper(c.Code))
		if phone == "" && c.Phone != "" {
			phone = format.Phone(c.Phone)
		}
		if addr := c.Address.Resolved(); address == "" && addr != nil {
			address = format.AddressPlain(addr.Fields())
		}
		if email == "" {
			email = c.Email
		}
	}
	return []string{p.ID, p.FullName, strings.Join(codes, ", "), dash(phone), dash(address), dash(email)}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
